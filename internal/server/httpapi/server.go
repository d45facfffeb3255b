// Package httpapi exposes the planner over REST.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Services groups the business services the handlers call.
type Services struct {
	Courses       *services.CourseService
	Distributions *services.DistributionService
	Users         *services.UserService
	Samples       *services.SampleService
	Exports       *services.PlanExportService
}

type HTTPServer struct {
	address string
	svc     Services
	authn   auth.Authenticator
	metrics *metrics.Metrics
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, svc Services, authn auth.Authenticator, mt *metrics.Metrics) *HTTPServer {
	s := &HTTPServer{
		address: a,
		svc:     svc,
		authn:   authn,
		metrics: mt,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.POST("/login/callback", s.loginCallback)
	api.GET("/addSamples", s.addSamples)
	api.GET("/users/:user_id", s.getUser)
	api.GET("/users/:user_id/export", s.requireAuth(), s.exportPlan)

	courses := api.Group("/courses")
	courses.GET("/user/:user_id", s.listCoursesByUser)
	courses.GET("/distribution/:distribution_id", s.listCoursesByDistribution)
	courses.GET("/term/:user_id", s.listCoursesByTerm)
	courses.GET("/:course_id", s.getCourse)
	courses.POST("", s.requireAuth(), s.addCourse)
	courses.PATCH("/changeStatus/:course_id", s.requireAuth(), s.changeStatus)
	courses.PATCH("/changeDistribution/:course_id", s.requireAuth(), s.changeDistribution)
	courses.POST("/:course_id/reconcile", s.requireAuth(), s.reconcileCourse)
	courses.DELETE("/:course_id", s.requireAuth(), s.deleteCourse)

	dists := api.Group("/distributions")
	dists.GET("/user/:user_id", s.listDistributionsByUser)
	dists.GET("/:distribution_id", s.getDistribution)
	dists.POST("", s.requireAuth(), s.createDistribution)
	dists.POST("/:distribution_id/reconcile", s.requireAuth(), s.reconcileDistribution)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
