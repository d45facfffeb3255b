// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ucredit"

// Operation status label values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded" // primary write done, some propagation failed
	StatusError    = "error"
)

// Metrics is registered on its own registry so tests and several App
// instances in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	// Labels: operation, status (ok, degraded, error)
	Operations *prometheus.CounterVec
	// Labels: operation
	OperationDuration *prometheus.HistogramVec
	// Labels: step (distribution.link, user.year.push, ...)
	PropagationFailures *prometheus.CounterVec
	// Labels: kind, status (ok, error)
	ReconciledTasks *prometheus.CounterVec
	OutboxPending   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "operations_total",
			Help:      "Coordinator operations by outcome",
		}, []string{"operation", "status"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "operation_duration_seconds",
			Help:      "Coordinator operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		PropagationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_failures_total",
			Help:      "Secondary updates that failed after the primary write",
		}, []string{"step"}),
		ReconciledTasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "tasks_total",
			Help:      "Outbox tasks processed by the reconciler",
		}, []string{"kind", "status"}),
		OutboxPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "pending_tasks",
			Help:      "Tasks waiting in the outbox",
		}),
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation, status string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) PropagationFailed(step string) {
	if m == nil {
		return
	}
	m.PropagationFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) TaskProcessed(kind, status string) {
	if m == nil {
		return
	}
	m.ReconciledTasks.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) SetOutboxPending(n int) {
	if m == nil {
		return
	}
	m.OutboxPending.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
