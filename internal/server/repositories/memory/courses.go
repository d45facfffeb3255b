package memory

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type CourseRepository struct {
	s *Store
}

func (r *CourseRepository) Create(ctx context.Context, c *models.Course) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[c.UserID]; !ok {
		return nil, common.NewNotFound(common.KindUser, c.UserID)
	}
	if _, ok := r.s.courses[c.ID]; ok {
		return nil, common.InvalidArgument("course " + c.ID + " already exists")
	}

	c.CreatedAt = r.s.now()
	c.DistributionIDs = dedupe(c.DistributionIDs)
	r.s.courses[c.ID] = cloneCourse(c)
	r.s.courseOrder = append(r.s.courseOrder, c.ID)

	return c, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, common.NewNotFound(common.KindCourse, id)
	}
	return cloneCourse(c), nil
}

// GetForUpdate is GetByID; isolation comes from dbx.LocalTransactor.
func (r *CourseRepository) GetForUpdate(ctx context.Context, id string) (*models.Course, error) {
	return r.GetByID(ctx, id)
}

func (r *CourseRepository) SetTaken(ctx context.Context, id string, taken bool) (*models.Course, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, false, common.NewNotFound(common.KindCourse, id)
	}
	changed := c.Taken != taken
	c.Taken = taken
	return cloneCourse(c), changed, nil
}

func (r *CourseRepository) SetDistributionIDs(ctx context.Context, id string, distributionIDs []string) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, common.NewNotFound(common.KindCourse, id)
	}
	c.DistributionIDs = dedupe(distributionIDs)
	return cloneCourse(c), nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, common.NewNotFound(common.KindCourse, id)
	}
	delete(r.s.courses, id)
	r.s.courseOrder = slices.DeleteFunc(r.s.courseOrder, func(s string) bool { return s == id })
	return cloneCourse(c), nil
}

func (r *CourseRepository) ListByUser(ctx context.Context, userID string) ([]*models.Course, error) {
	return r.filter(func(c *models.Course) bool { return c.UserID == userID }), nil
}

func (r *CourseRepository) ListByDistribution(ctx context.Context, distributionID string) ([]*models.Course, error) {
	return r.filter(func(c *models.Course) bool {
		return slices.Contains(c.DistributionIDs, distributionID)
	}), nil
}

func (r *CourseRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	return r.filter(func(c *models.Course) bool { return slices.Contains(ids, c.ID) }), nil
}

func (r *CourseRepository) ListByTerm(ctx context.Context, userID, year, term string) ([]*models.Course, error) {
	r.s.mu.Lock()
	var ids []string
	if rec, ok := r.s.users[userID]; ok {
		ids = slices.Clone(rec.years[year])
	}
	r.s.mu.Unlock()

	return r.filter(func(c *models.Course) bool {
		return c.Term == term && slices.Contains(ids, c.ID)
	}), nil
}

func (r *CourseRepository) filter(keep func(c *models.Course) bool) []*models.Course {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []*models.Course{}
	for _, id := range r.s.courseOrder {
		if c := r.s.courses[id]; keep(c) {
			result = append(result, cloneCourse(c))
		}
	}
	return result
}
