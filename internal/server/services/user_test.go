package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claims := &auth.UserClaims{UserID: "liam", Name: "Liam", Email: "liam@jhu.edu", Affiliation: "STUDENT"}
	u, err := f.userSvc.Login(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "liam", u.ID)
	assert.Equal(t, "liam@jhu.edu", u.Email)
	assert.Empty(t, u.DistributionIDs)

	// later sign-ins return the stored profile, not the new claims
	u, err = f.userSvc.Login(ctx, &auth.UserClaims{UserID: "liam", Name: "Changed"})
	require.NoError(t, err)
	assert.Equal(t, "Liam", u.Name)

	_, err = f.userSvc.Login(ctx, nil)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.userSvc.Login(ctx, &auth.UserClaims{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_GetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.addCourse(t, 3, false, f.humanitiesID).Course

	u, err := f.userSvc.GetUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.humanitiesID, f.mathematicsID}, u.DistributionIDs)
	assert.Equal(t, map[string][]string{"freshman": {course.ID}}, u.Years)

	_, err = f.userSvc.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDistributionService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.distSvc.Create(ctx, CreateDistributionInput{UserID: f.userID, Name: "Writing", Required: 4})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Zero(t, d.Current)
	assert.Empty(t, d.Courses)

	list, err := f.distSvc.ListByUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = f.distSvc.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = f.distSvc.Create(ctx, CreateDistributionInput{UserID: "ghost", Name: "X"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = f.distSvc.Create(ctx, CreateDistributionInput{UserID: f.userID, Required: -1})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorContains(t, err, "name: required")
	assert.ErrorContains(t, err, "required: gte=0")
}

func TestSampleService_Seed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := NewSampleService(f.userSvc, f.distSvc, f.courseSvc)

	u, warnings, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, SampleUserID, u.ID)
	require.Len(t, u.DistributionIDs, 2)
	assert.Len(t, u.Years["freshman"], 4)
	assert.Len(t, u.Years["sophomore"], 1)

	hum, err := f.distSvc.Get(ctx, u.DistributionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 3.0, hum.Current)
	math, err := f.distSvc.Get(ctx, u.DistributionIDs[1])
	require.NoError(t, err)
	assert.Equal(t, 8.0, math.Current)

	again, _, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.DistributionIDs, again.DistributionIDs)

	courses, err := f.courseSvc.ListByUser(ctx, SampleUserID)
	require.NoError(t, err)
	assert.Len(t, courses, len(sampleCourses))
}
