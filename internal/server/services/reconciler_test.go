package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_RunOnce_RetriesUntilSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dists.fail = true
	course := f.addCourse(t, 3, true, f.humanitiesID).Course

	done, failed, err := f.reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Equal(t, 1, failed)

	tasks := f.pending(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, 1, tasks[0].Attempts)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReconciledTasks.WithLabelValues(string(outbox.KindDistributionLink), metrics.StatusError)))

	f.dists.fail = false
	done, failed, err = f.reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Zero(t, failed)
	assert.Equal(t, 3.0, f.current(t, f.humanitiesID))

	d, err := f.distSvc.Get(ctx, f.humanitiesID)
	require.NoError(t, err)
	assert.Equal(t, []string{course.ID}, d.Courses)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.OutboxPending))
}

func TestReconciler_RunOnce_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.addCourse(t, 3, true, f.humanitiesID).Course

	// the same link queued twice must not credit twice
	for range 2 {
		require.NoError(t, f.outbox.Enqueue(ctx, &outbox.Task{
			Kind: outbox.KindDistributionLink, CourseID: course.ID, DistributionID: f.humanitiesID,
		}))
	}

	done, _, err := f.reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.Equal(t, 3.0, f.current(t, f.humanitiesID))
}

func TestReconciler_RunOnce_VanishedTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course := f.addCourse(t, 3, true, f.humanitiesID).Course
	_, err := f.courseSvc.DeleteCourse(ctx, course.ID)
	require.NoError(t, err)

	for _, task := range []*outbox.Task{
		{Kind: outbox.KindDistributionLink, CourseID: course.ID, DistributionID: f.humanitiesID},
		{Kind: outbox.KindDistributionRecompute, CourseID: course.ID, DistributionID: "gone"},
		{Kind: outbox.KindUserYearPush, CourseID: course.ID, UserID: f.userID, Year: "freshman"},
	} {
		require.NoError(t, f.outbox.Enqueue(ctx, task))
	}

	done, failed, err := f.reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Zero(t, failed)

	// a link for a deleted course is turned into an unlink
	d, err := f.distSvc.Get(ctx, f.humanitiesID)
	require.NoError(t, err)
	assert.Empty(t, d.Courses)
	assert.Equal(t, 0.0, d.Current)

	u, err := f.userSvc.GetUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, u.Years["freshman"])
}

func TestReconciler_RunOnce_UnknownKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.outbox.Enqueue(ctx, &outbox.Task{Kind: "bogus", CourseID: "c1"}))

	done, failed, err := f.reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Equal(t, 1, failed)

	tasks := f.pending(t)
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0].LastError, "unknown task kind")
}

func TestReconciler_Run_StopsOnCancel(t *testing.T) {
	f := newFixture(t)

	f.dists.fail = true
	f.addCourse(t, 3, true, f.humanitiesID)
	f.dists.fail = false

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.reconciler.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool {
		n, err := f.outbox.Len(context.Background())
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
	assert.Equal(t, 3.0, f.current(t, f.humanitiesID))
}
