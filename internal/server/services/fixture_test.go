package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/distributions"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// faultyManager wraps a real manager and swaps in fake repositories where set.
type faultyManager struct {
	repomanager.RepositoryManager
	dists distributions.Repository
	users users.Repository
}

func (m *faultyManager) Distributions(db dbx.DBTX) distributions.Repository {
	if m.dists != nil {
		return m.dists
	}
	return m.RepositoryManager.Distributions(db)
}

func (m *faultyManager) Users(db dbx.DBTX) users.Repository {
	if m.users != nil {
		return m.users
	}
	return m.RepositoryManager.Users(db)
}

// flakyDistributions fails the set and credit updates while fail is true.
type flakyDistributions struct {
	distributions.Repository
	fail bool
}

func (f *flakyDistributions) PushCourse(ctx context.Context, distributionID, courseID string) (bool, error) {
	if f.fail {
		return false, errBoom
	}
	return f.Repository.PushCourse(ctx, distributionID, courseID)
}

func (f *flakyDistributions) PullCourse(ctx context.Context, distributionID, courseID string) (bool, error) {
	if f.fail {
		return false, errBoom
	}
	return f.Repository.PullCourse(ctx, distributionID, courseID)
}

func (f *flakyDistributions) AdjustCurrent(ctx context.Context, distributionID string, delta float64) (float64, error) {
	if f.fail {
		return 0, errBoom
	}
	return f.Repository.AdjustCurrent(ctx, distributionID, delta)
}

type flakyUsers struct {
	users.Repository
	fail bool
}

func (f *flakyUsers) PushYearCourse(ctx context.Context, userID, year, courseID string) (bool, error) {
	if f.fail {
		return false, errBoom
	}
	return f.Repository.PushYearCourse(ctx, userID, year, courseID)
}

func (f *flakyUsers) PullYearCourse(ctx context.Context, userID, year, courseID string) (bool, error) {
	if f.fail {
		return false, errBoom
	}
	return f.Repository.PullYearCourse(ctx, userID, year, courseID)
}

type fixture struct {
	manager       *faultyManager
	dists         *flakyDistributions
	users         *flakyUsers
	outbox        *outbox.MemoryStore
	metrics       *metrics.Metrics
	userSvc       *UserService
	distSvc       *DistributionService
	courseSvc     *CourseService
	reconciler    *Reconciler
	userID        string
	humanitiesID  string
	mathematicsID string
}

// newFixture builds the services over the memory store with one signed-in
// user owning two distributions.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	base := repomanager.NewMemoryRepositoryManager()
	f := &fixture{
		dists:   &flakyDistributions{Repository: base.Distributions(nil)},
		users:   &flakyUsers{Repository: base.Users(nil)},
		outbox:  outbox.NewMemoryStore(),
		metrics: metrics.New(),
		userID:  "mia",
	}
	f.manager = &faultyManager{RepositoryManager: base, dists: f.dists, users: f.users}

	tx := dbx.NewLocalTransactor()
	log := logging.Nop{}
	f.userSvc = NewUserService(tx, f.manager, log)
	f.distSvc = NewDistributionService(tx, f.manager, log)
	f.courseSvc = NewCourseService(tx, f.manager, f.outbox, f.metrics, log)
	f.reconciler = NewReconciler(f.courseSvc, f.outbox, 10, f.metrics, log)

	ctx := context.Background()
	_, err := f.userSvc.Login(ctx, &auth.UserClaims{UserID: f.userID, Name: "Mia"})
	require.NoError(t, err)

	h, err := f.distSvc.Create(ctx, CreateDistributionInput{UserID: f.userID, Name: "Humanities", Required: 6})
	require.NoError(t, err)
	m, err := f.distSvc.Create(ctx, CreateDistributionInput{UserID: f.userID, Name: "Mathematics", Required: 12})
	require.NoError(t, err)
	f.humanitiesID, f.mathematicsID = h.ID, m.ID

	return f
}

func (f *fixture) addCourse(t *testing.T, credits float64, taken bool, distributionIDs ...string) *MutationResult {
	t.Helper()
	res, err := f.courseSvc.AddCourse(context.Background(), AddCourseInput{
		UserID:          f.userID,
		DistributionIDs: distributionIDs,
		Title:           "Course",
		Term:            "fall",
		Year:            "freshman",
		Credits:         credits,
		Taken:           taken,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) current(t *testing.T, distributionID string) float64 {
	t.Helper()
	d, err := f.distSvc.Get(context.Background(), distributionID)
	require.NoError(t, err)
	return d.Current
}

func (f *fixture) pending(t *testing.T) []outbox.Task {
	t.Helper()
	tasks, err := f.outbox.Pending(context.Background(), 100)
	require.NoError(t, err)
	return tasks
}

func ptr[T any](v T) *T { return &v }
