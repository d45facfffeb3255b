package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/courses"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/distributions"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ users.Repository         = (*UserRepository)(nil)
	_ distributions.Repository = (*DistributionRepository)(nil)
	_ courses.Repository       = (*CourseRepository)(nil)
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	_, err := s.Users().Create(ctx, &models.User{ID: "u1", Name: "Alice"})
	require.NoError(t, err)
	_, err = s.Distributions().Create(ctx, &models.Distribution{ID: "d1", UserID: "u1", Name: "Humanities", Required: 6})
	require.NoError(t, err)
	return s
}

func TestUsers_YearCourses(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	repo := s.Users()

	added, err := repo.PushYearCourse(ctx, "u1", "freshman", "c1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.PushYearCourse(ctx, "u1", "freshman", "c1")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = repo.PushYearCourse(ctx, "ghost", "freshman", "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	years, err := repo.YearCourses(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"freshman": {"c1"}}, years)

	removed, err := repo.PullYearCourse(ctx, "u1", "freshman", "c1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.PullYearCourse(ctx, "u1", "freshman", "c1")
	require.NoError(t, err)
	assert.False(t, removed)

	years, err = repo.YearCourses(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, years)
}

func TestUsers_GetByID(t *testing.T) {
	s := seeded(t)

	u, err := s.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.Users().GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Users().Create(context.Background(), &models.User{ID: "u1"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestDistributions_SetOperations(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	repo := s.Distributions()

	added, err := repo.PushCourse(ctx, "d1", "c1")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.PushCourse(ctx, "d1", "c1")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = repo.PushCourse(ctx, "ghost", "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ids, err := repo.CourseIDs(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)

	holders, err := repo.ListIDsByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, holders)

	removed, err := repo.PullCourse(ctx, "d1", "c1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.PullCourse(ctx, "d1", "c1")
	require.NoError(t, err)
	assert.False(t, removed)

	holders, err = repo.ListIDsByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, holders)
}

func TestDistributions_Current(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	repo := s.Distributions()

	got, err := repo.AdjustCurrent(ctx, "d1", -3)
	require.NoError(t, err)
	assert.Equal(t, -3.0, got)

	require.NoError(t, repo.SetCurrent(ctx, "d1", 10))
	d, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.Current)

	_, err = repo.AdjustCurrent(ctx, "ghost", 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.SetCurrent(ctx, "ghost", 1), common.ErrorNotFound)
}

func TestDistributions_AdjustCurrentConcurrent(t *testing.T) {
	s := seeded(t)
	repo := s.Distributions()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AdjustCurrent(context.Background(), "d1", 1)
		}()
	}
	wg.Wait()

	d, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, d.Current)
}

func TestDistributions_List(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	_, err := s.Distributions().Create(ctx, &models.Distribution{ID: "d2", UserID: "u1"})
	require.NoError(t, err)

	_, err = s.Distributions().Create(ctx, &models.Distribution{ID: "d3", UserID: "ghost"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ids, err := s.Distributions().ListIDsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, ids)

	list, err := s.Distributions().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{}, list[0].Courses)
}

func TestCourses_Lifecycle(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	repo := s.Courses()

	c, err := repo.Create(ctx, &models.Course{ID: "c1", UserID: "u1", Year: "freshman", Term: "fall",
		Credits: 3, DistributionIDs: []string{"d1", "d1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, c.DistributionIDs)

	_, err = repo.Create(ctx, &models.Course{ID: "c2", UserID: "ghost", Credits: 1})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, changed, err := repo.SetTaken(ctx, "c1", true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got.Taken)

	_, changed, err = repo.SetTaken(ctx, "c1", true)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err = repo.SetDistributionIDs(ctx, "c1", []string{"d2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, got.DistributionIDs)

	byDist, err := repo.ListByDistribution(ctx, "d2")
	require.NoError(t, err)
	require.Len(t, byDist, 1)

	deleted, err := repo.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", deleted.ID)

	_, err = repo.Delete(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, _, err = repo.SetTaken(ctx, "c1", false)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCourses_ReturnedValuesAreCopies(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	_, err := s.Courses().Create(ctx, &models.Course{ID: "c1", UserID: "u1", Year: "y", Credits: 3, DistributionIDs: []string{"d1"}})
	require.NoError(t, err)

	c, err := s.Courses().GetByID(ctx, "c1")
	require.NoError(t, err)
	c.DistributionIDs[0] = "tampered"

	again, err := s.Courses().GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, again.DistributionIDs)
}

func TestCourses_ListByTermAndIDs(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	for _, c := range []*models.Course{
		{ID: "c1", UserID: "u1", Year: "freshman", Term: "fall", Credits: 3},
		{ID: "c2", UserID: "u1", Year: "freshman", Term: "spring", Credits: 3},
		{ID: "c3", UserID: "u1", Year: "sophomore", Term: "fall", Credits: 3},
	} {
		_, err := s.Courses().Create(ctx, c)
		require.NoError(t, err)
		_, err = s.Users().PushYearCourse(ctx, "u1", c.Year, c.ID)
		require.NoError(t, err)
	}

	fall, err := s.Courses().ListByTerm(ctx, "u1", "freshman", "fall")
	require.NoError(t, err)
	require.Len(t, fall, 1)
	assert.Equal(t, "c1", fall[0].ID)

	byIDs, err := s.Courses().ListByIDs(ctx, []string{"c3", "gone", "c1"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "c1", byIDs[0].ID)

	all, err := s.Courses().ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
