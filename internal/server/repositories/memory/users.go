package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return nil, common.InvalidArgument("user " + user.ID + " already exists")
	}

	user.CreatedAt = r.s.now()
	rec := &userRecord{user: *user, years: make(map[string][]string)}
	rec.user.DistributionIDs = nil
	rec.user.Years = nil
	r.s.users[user.ID] = rec

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[id]
	if !ok {
		return nil, common.NewNotFound(common.KindUser, id)
	}
	u := rec.user
	return &u, nil
}

func (r *UserRepository) PushYearCourse(ctx context.Context, userID, year, courseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[userID]
	if !ok {
		return false, common.NewNotFound(common.KindUser, userID)
	}

	var added bool
	rec.years[year], added = push(rec.years[year], courseID)
	return added, nil
}

func (r *UserRepository) PullYearCourse(ctx context.Context, userID, year, courseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[userID]
	if !ok {
		return false, nil
	}

	list, removed := pull(rec.years[year], courseID)
	if len(list) == 0 {
		delete(rec.years, year)
	} else {
		rec.years[year] = list
	}
	return removed, nil
}

func (r *UserRepository) YearCourses(ctx context.Context, userID string) (map[string][]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	years := make(map[string][]string)
	rec, ok := r.s.users[userID]
	if !ok {
		return years, nil
	}
	for _, year := range slices.Sorted(maps.Keys(rec.years)) {
		years[year] = slices.Clone(rec.years[year])
	}
	return years, nil
}
