package services

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/ledger"
	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Operation names used in logs and metrics.
const (
	OpAddCourse             = "add_course"
	OpChangeTakenStatus     = "change_taken_status"
	OpChangeDistribution    = "change_distribution"
	OpDeleteCourse          = "delete_course"
	OpReconcileDistribution = "reconcile_distribution"
	OpReconcileMembership   = "reconcile_membership"
)

// MutationResult is returned by every coordinator operation that wrote the
// primary record.
//
// Warnings lists secondary updates (distribution credit, distribution course
// set, user year-field) that failed. Each of them is queued in the outbox
// for the reconciler.
type MutationResult struct {
	Course   *models.Course
	Warnings []*common.PropagationError

	// CreditReconciliationRequired is set when the course's distribution
	// membership changed without the distributions being updated.
	// AffectedDistributionIDs then names the distributions to reconcile.
	CreditReconciliationRequired bool
	AffectedDistributionIDs      []string
}

func (r *MutationResult) status() string {
	if len(r.Warnings) > 0 {
		return metrics.StatusDegraded
	}
	return metrics.StatusOK
}

// CourseService coordinates every write that touches a course so that
// Course.distribution_ids, Distribution.courses, Distribution.current and
// the user's year-fields stay consistent.
//
// The course record is authoritative. Each operation writes it and its
// secondary updates in one transaction, holding the course row lock. A
// secondary update that fails is rolled back on its own and comes back as a
// warning and an outbox task; the primary write still commits.
//
// Credit follows Distribution.courses: a distribution counts a taken course
// exactly when its course set holds it.
type CourseService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	outbox      outbox.Store
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewCourseService(tx dbx.Transactor, m repomanager.RepositoryManager, ob outbox.Store,
	mt *metrics.Metrics, logger logging.Logger) *CourseService {
	return &CourseService{
		tx:          tx,
		repomanager: m,
		outbox:      ob,
		metrics:     mt,
		logger:      logger.With("module", "coordinator"),
	}
}

// AddCourse validates the input, creates the course and links it to its
// distributions and to the user's year-field.
//
// An unknown user yields a NotFoundError and distribution ids the user does
// not own yield an InvalidReferenceError. In both cases nothing is written.
func (s *CourseService) AddCourse(ctx context.Context, in AddCourseInput) (res *MutationResult, err error) {
	started := time.Now()
	defer func() { s.observe(OpAddCourse, res, err, started) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	conn := s.tx.Conn()
	if _, err := s.repomanager.Users(conn).GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	distributionIDs := dedupe(in.DistributionIDs)
	if err := s.checkOwnership(ctx, in.UserID, distributionIDs); err != nil {
		return nil, err
	}

	course := &models.Course{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		DistributionIDs: distributionIDs,
		Title:           in.Title,
		Number:          in.Number,
		Term:            in.Term,
		Year:            in.Year,
		Credits:         in.Credits,
		Taken:           in.Taken,
	}

	var w *secondary
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		w = &secondary{tx: tx}
		created, err := s.repomanager.Courses(tx).Create(ctx, course)
		if err != nil {
			return err
		}
		for _, distID := range created.DistributionIDs {
			w.run(ctx, &outbox.Task{
				Kind: outbox.KindDistributionLink, CourseID: created.ID, DistributionID: distID,
			}, func() error {
				return s.linkTx(ctx, tx, created, distID)
			})
		}
		w.run(ctx, &outbox.Task{
			Kind: outbox.KindUserYearPush, CourseID: created.ID, UserID: created.UserID, Year: created.Year,
		}, func() error {
			_, err := s.repomanager.Users(tx).PushYearCourse(ctx, created.UserID, created.Year, created.ID)
			return err
		})
		course = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "course added", "course_id", course.ID, "user_id", course.UserID)

	res = &MutationResult{Course: course}
	s.report(ctx, res, w)
	return res, nil
}

// ChangeTakenStatus sets the course's taken flag and moves its credits in
// or out of every distribution whose course set holds it.
//
// A nil taken is an InvalidArgument. Setting the value the course already
// has changes nothing, so repeating a call never counts credits twice.
func (s *CourseService) ChangeTakenStatus(ctx context.Context, courseID string, taken *bool) (res *MutationResult, err error) {
	started := time.Now()
	defer func() { s.observe(OpChangeTakenStatus, res, err, started) }()

	if taken == nil {
		return nil, common.InvalidArgument("taken must be a boolean")
	}

	var course *models.Course
	var changed bool
	var w *secondary
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		w = &secondary{tx: tx}
		var err error
		course, changed, err = s.repomanager.Courses(tx).SetTaken(ctx, courseID, *taken)
		if err != nil || !changed {
			return err
		}

		dists := s.repomanager.Distributions(tx)
		holding, err := dists.ListIDsByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		for _, distID := range holding {
			w.run(ctx, &outbox.Task{
				Kind: outbox.KindDistributionRecompute, CourseID: course.ID, DistributionID: distID,
			}, func() error {
				_, err := dists.AdjustCurrent(ctx, distID, ledger.Delta(course, *taken))
				return err
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &MutationResult{Course: course}
	if !changed {
		s.logger.Debug(ctx, "taken status unchanged", "course_id", courseID, "taken", *taken)
		return res, nil
	}

	s.report(ctx, res, w)
	s.logger.Info(ctx, "taken status changed", "course_id", courseID, "taken", *taken)
	return res, nil
}

// ChangeDistributionMembership replaces the course's distribution ids and
// nothing else: no distribution course set or credit total is touched.
// When the membership actually changed the result says so and lists the
// distributions involved; ReconcileCourseMembership applies the change.
func (s *CourseService) ChangeDistributionMembership(ctx context.Context, courseID string, distributionIDs []string) (res *MutationResult, err error) {
	started := time.Now()
	defer func() { s.observe(OpChangeDistribution, res, err, started) }()

	if distributionIDs == nil {
		return nil, common.InvalidArgument("distribution ids are required")
	}
	if slices.Contains(distributionIDs, "") {
		return nil, common.InvalidArgument("distribution ids must not be empty")
	}

	var before, after *models.Course
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Courses(tx)
		var err error
		if before, err = repo.GetForUpdate(ctx, courseID); err != nil {
			return err
		}
		after, err = repo.SetDistributionIDs(ctx, courseID, dedupe(distributionIDs))
		return err
	})
	if err != nil {
		return nil, err
	}

	res = &MutationResult{Course: after}
	if !sameSet(before.DistributionIDs, after.DistributionIDs) {
		res.CreditReconciliationRequired = true
		res.AffectedDistributionIDs = union(before.DistributionIDs, after.DistributionIDs)
		s.logger.Warn(ctx, "distribution membership changed without credit update",
			"course_id", courseID, "affected", res.AffectedDistributionIDs)
	}

	return res, nil
}

// DeleteCourse removes the course and retracts it from its distributions
// (subtracting its credits when it was taken) and from the user's
// year-field. The distributions are those the course lists and those whose
// course set still holds it, which differ after an unreconciled move. The
// result carries the course as it was before deletion.
func (s *CourseService) DeleteCourse(ctx context.Context, courseID string) (res *MutationResult, err error) {
	started := time.Now()
	defer func() { s.observe(OpDeleteCourse, res, err, started) }()

	var course *models.Course
	var w *secondary
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		w = &secondary{tx: tx}
		deleted, err := s.repomanager.Courses(tx).Delete(ctx, courseID)
		if err != nil {
			return err
		}
		holding, err := s.repomanager.Distributions(tx).ListIDsByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		for _, distID := range union(deleted.DistributionIDs, holding) {
			w.run(ctx, &outbox.Task{
				Kind: outbox.KindDistributionUnlink, CourseID: deleted.ID, DistributionID: distID,
			}, func() error {
				return s.unlinkTx(ctx, tx, deleted, distID)
			})
		}
		w.run(ctx, &outbox.Task{
			Kind: outbox.KindUserYearPull, CourseID: deleted.ID, UserID: deleted.UserID, Year: deleted.Year,
		}, func() error {
			_, err := s.repomanager.Users(tx).PullYearCourse(ctx, deleted.UserID, deleted.Year, deleted.ID)
			return err
		})
		course = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "course deleted", "course_id", course.ID, "user_id", course.UserID)

	res = &MutationResult{Course: course}
	s.report(ctx, res, w)
	return res, nil
}

// ReconcileCourseMembership makes the user's distributions agree with the
// course's distribution ids: the course is added to (and credited in) the
// listed distributions and removed from (and debited in) every other one
// that holds it. Ids the user does not own are rejected before anything is
// written.
func (s *CourseService) ReconcileCourseMembership(ctx context.Context, courseID string) (res *MutationResult, err error) {
	started := time.Now()
	defer func() { s.observe(OpReconcileMembership, res, err, started) }()

	var course *models.Course
	var w *secondary
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		w = &secondary{tx: tx}
		c, err := s.repomanager.Courses(tx).GetForUpdate(ctx, courseID)
		if err != nil {
			return err
		}
		dists := s.repomanager.Distributions(tx)
		owned, err := dists.ListIDsByUser(ctx, c.UserID)
		if err != nil {
			return err
		}
		if bad := missing(c.DistributionIDs, owned); len(bad) > 0 {
			return &common.InvalidReferenceError{UserID: c.UserID, IDs: bad}
		}
		holding, err := dists.ListIDsByCourse(ctx, c.ID)
		if err != nil {
			return err
		}

		for _, distID := range union(owned, holding) {
			task := &outbox.Task{Kind: outbox.KindDistributionUnlink, CourseID: c.ID, DistributionID: distID}
			step := s.unlinkTx
			if slices.Contains(c.DistributionIDs, distID) {
				task.Kind = outbox.KindDistributionLink
				step = s.linkTx
			}
			w.run(ctx, task, func() error {
				return step(ctx, tx, c, distID)
			})
		}
		course = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &MutationResult{Course: course}
	s.report(ctx, res, w)
	return res, nil
}

// ReconcileDistribution recomputes the distribution's credit total from the
// courses in its course set and stores it.
func (s *CourseService) ReconcileDistribution(ctx context.Context, distributionID string) (d *models.Distribution, err error) {
	started := time.Now()
	defer func() {
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusError
		}
		s.metrics.Observe(OpReconcileDistribution, status, started)
	}()

	before, after, err := s.recompute(ctx, distributionID)
	if err != nil {
		return nil, err
	}
	if before != after.Current {
		s.logger.Info(ctx, "distribution total corrected",
			"distribution_id", distributionID, "from", before, "to", after.Current)
	}
	return after, nil
}

func (s *CourseService) checkOwnership(ctx context.Context, userID string, distributionIDs []string) error {
	if len(distributionIDs) == 0 {
		return nil
	}
	owned, err := s.repomanager.Distributions(s.tx.Conn()).ListIDsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if bad := missing(distributionIDs, owned); len(bad) > 0 {
		return &common.InvalidReferenceError{UserID: userID, IDs: bad}
	}
	return nil
}

func (s *CourseService) observe(operation string, res *MutationResult, err error, started time.Time) {
	status := metrics.StatusError
	if err == nil && res != nil {
		status = res.status()
	}
	s.metrics.Observe(operation, status, started)
}
