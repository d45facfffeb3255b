package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/server/ledger"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
)

// secondary collects the best-effort steps of one unit of work. Each step
// runs in its own savepoint, so a failing step leaves the primary write and
// the other steps in place. Failures are reported once the unit commits.
type secondary struct {
	tx     dbx.DBTX
	n      int
	failed []failedStep
}

type failedStep struct {
	task *outbox.Task
	err  error
}

func (w *secondary) run(ctx context.Context, task *outbox.Task, fn func() error) {
	w.n++
	if err := dbx.Savepoint(ctx, w.tx, fmt.Sprintf("step_%d", w.n), fn); err != nil {
		w.failed = append(w.failed, failedStep{task: task, err: err})
	}
}

// report turns the failed steps into warnings and outbox tasks.
func (s *CourseService) report(ctx context.Context, res *MutationResult, w *secondary) {
	for _, f := range w.failed {
		res.Warnings = append(res.Warnings, s.propagationFailed(ctx, f.task, f.err))
	}
}

// linkTx adds the course to the distribution's course set and, if it was not
// there yet and the course is taken, credits it. A retried link never
// credits twice.
func (s *CourseService) linkTx(ctx context.Context, tx dbx.DBTX, c *models.Course, distributionID string) error {
	repo := s.repomanager.Distributions(tx)
	added, err := repo.PushCourse(ctx, distributionID, c.ID)
	if err != nil {
		return err
	}
	if added && c.Taken {
		_, err = repo.AdjustCurrent(ctx, distributionID, ledger.Delta(c, true))
	}
	return err
}

// unlinkTx is the inverse of linkTx.
func (s *CourseService) unlinkTx(ctx context.Context, tx dbx.DBTX, c *models.Course, distributionID string) error {
	repo := s.repomanager.Distributions(tx)
	removed, err := repo.PullCourse(ctx, distributionID, c.ID)
	if err != nil {
		return err
	}
	if removed && c.Taken {
		_, err = repo.AdjustCurrent(ctx, distributionID, ledger.Delta(c, false))
	}
	return err
}

// recompute sets the distribution total to what its course set implies and
// returns the previous total and the updated distribution.
func (s *CourseService) recompute(ctx context.Context, distributionID string) (float64, *models.Distribution, error) {
	var before float64
	var d *models.Distribution

	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		dists := s.repomanager.Distributions(tx)

		current, err := dists.GetForUpdate(ctx, distributionID)
		if err != nil {
			return err
		}
		before = current.Current

		members, err := s.repomanager.Courses(tx).ListByIDs(ctx, current.Courses)
		if err != nil {
			return err
		}

		current.Current = ledger.Expected(members)
		if err := dists.SetCurrent(ctx, distributionID, current.Current); err != nil {
			return err
		}
		d = current
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	return before, d, nil
}

// propagationFailed logs and counts a failed secondary update and queues it
// for the reconciler.
func (s *CourseService) propagationFailed(ctx context.Context, task *outbox.Task, cause error) *common.PropagationError {
	target := task.DistributionID
	if target == "" {
		target = task.UserID
	}
	perr := &common.PropagationError{Step: string(task.Kind), CourseID: task.CourseID, TargetID: target, Err: cause}

	s.logger.Warn(ctx, "propagation failed",
		"course_id", task.CourseID, "step", task.Kind, "target_id", target, "error", cause)
	s.metrics.PropagationFailed(string(task.Kind))

	task.LastError = cause.Error()
	if err := s.outbox.Enqueue(ctx, task); err != nil {
		s.logger.Error(ctx, "outbox enqueue failed", "course_id", task.CourseID, "step", task.Kind, "error", err)
		return perr
	}
	if n, err := s.outbox.Len(ctx); err == nil {
		s.metrics.SetOutboxPending(n)
	}

	return perr
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// missing returns the ids not present in allowed, in input order.
func missing(ids, allowed []string) []string {
	var out []string
	for _, id := range ids {
		if !slices.Contains(allowed, id) {
			out = append(out, id)
		}
	}
	return out
}

func union(a, b []string) []string {
	return dedupe(append(slices.Clone(a), b...))
}

func sameSet(a, b []string) bool {
	return len(missing(a, b)) == 0 && len(missing(b, a)) == 0
}
