package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
)

// Reconciler drains the outbox, re-applying failed secondary updates.
//
// Set operations are re-applied as set operations and credit totals are
// recomputed from scratch, so a task may run any number of times.
type Reconciler struct {
	courses *CourseService
	outbox  outbox.Store
	batch   int
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewReconciler(courses *CourseService, ob outbox.Store, batch int, mt *metrics.Metrics, logger logging.Logger) *Reconciler {
	if batch <= 0 {
		batch = 100
	}
	return &Reconciler{
		courses: courses,
		outbox:  ob,
		batch:   batch,
		metrics: mt,
		logger:  logger.With("module", "reconciler"),
	}
}

// RunOnce processes up to one batch of tasks and reports how many were
// completed and how many failed again.
func (r *Reconciler) RunOnce(ctx context.Context) (done, failed int, err error) {
	tasks, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		return 0, 0, fmt.Errorf("read outbox: %w", err)
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		taskCtx := logging.WithContext(ctx, "task_id", task.ID)
		if applyErr := r.apply(taskCtx, task); applyErr != nil {
			failed++
			r.metrics.TaskProcessed(string(task.Kind), metrics.StatusError)
			r.logger.Warn(taskCtx, "outbox task failed",
				"step", task.Kind, "course_id", task.CourseID,
				"attempts", task.Attempts+1, "error", applyErr)
			if err := r.outbox.Fail(ctx, task.ID, applyErr); err != nil {
				return done, failed, fmt.Errorf("update outbox: %w", err)
			}
			continue
		}

		done++
		r.metrics.TaskProcessed(string(task.Kind), metrics.StatusOK)
		if err := r.outbox.Ack(ctx, task.ID); err != nil {
			return done, failed, fmt.Errorf("update outbox: %w", err)
		}
	}

	if n, err := r.outbox.Len(ctx); err == nil {
		r.metrics.SetOutboxPending(n)
	}
	if done+failed > 0 {
		r.logger.Info(ctx, "outbox drained", "done", done, "failed", failed)
	}

	return done, failed, nil
}

// Run calls RunOnce every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error(ctx, "reconcile pass failed", "error", err)
			}
		}
	}
}

func (r *Reconciler) apply(ctx context.Context, task outbox.Task) error {
	s := r.courses
	conn := s.tx.Conn()

	switch task.Kind {
	case outbox.KindDistributionLink, outbox.KindDistributionUnlink:
		err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			course, err := s.repomanager.Courses(tx).GetForUpdate(ctx, task.CourseID)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			// the course may have been deleted or moved since the task was queued
			member := err == nil && slices.Contains(course.DistributionIDs, task.DistributionID)

			dists := s.repomanager.Distributions(tx)
			if member {
				_, err = dists.PushCourse(ctx, task.DistributionID, task.CourseID)
			} else {
				_, err = dists.PullCourse(ctx, task.DistributionID, task.CourseID)
			}
			return err
		})
		if err != nil {
			return ignoreMissing(err)
		}
		_, _, err = s.recompute(ctx, task.DistributionID)
		return ignoreMissing(err)

	case outbox.KindDistributionRecompute:
		_, _, err := s.recompute(ctx, task.DistributionID)
		return ignoreMissing(err)

	case outbox.KindUserYearPush:
		if _, err := s.repomanager.Courses(conn).GetByID(ctx, task.CourseID); err != nil {
			return ignoreMissing(err)
		}
		_, err := s.repomanager.Users(conn).PushYearCourse(ctx, task.UserID, task.Year, task.CourseID)
		return ignoreMissing(err)

	case outbox.KindUserYearPull:
		_, err := s.repomanager.Users(conn).PullYearCourse(ctx, task.UserID, task.Year, task.CourseID)
		return err

	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// ignoreMissing treats a vanished target as done: there is nothing left to
// make consistent.
func ignoreMissing(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}
