package memory

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type DistributionRepository struct {
	s *Store
}

func (r *DistributionRepository) Create(ctx context.Context, d *models.Distribution) (*models.Distribution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[d.UserID]; !ok {
		return nil, common.NewNotFound(common.KindUser, d.UserID)
	}
	if _, ok := r.s.distributions[d.ID]; ok {
		return nil, common.InvalidArgument("distribution " + d.ID + " already exists")
	}

	d.CreatedAt = r.s.now()
	d.Courses = dedupe(d.Courses)
	r.s.distributions[d.ID] = cloneDistribution(d)
	r.s.distributionOrder = append(r.s.distributionOrder, d.ID)

	return d, nil
}

func (r *DistributionRepository) GetByID(ctx context.Context, id string) (*models.Distribution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.distributions[id]
	if !ok {
		return nil, common.NewNotFound(common.KindDistribution, id)
	}
	return cloneDistribution(d), nil
}

func (r *DistributionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Distribution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*models.Distribution
	for _, id := range r.s.distributionOrder {
		if d := r.s.distributions[id]; d.UserID == userID {
			result = append(result, cloneDistribution(d))
		}
	}
	return result, nil
}

func (r *DistributionRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []string{}
	for _, id := range r.s.distributionOrder {
		if r.s.distributions[id].UserID == userID {
			result = append(result, id)
		}
	}
	return result, nil
}

// GetForUpdate is GetByID; isolation comes from dbx.LocalTransactor.
func (r *DistributionRepository) GetForUpdate(ctx context.Context, id string) (*models.Distribution, error) {
	return r.GetByID(ctx, id)
}

func (r *DistributionRepository) ListIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []string{}
	for _, id := range r.s.distributionOrder {
		if slices.Contains(r.s.distributions[id].Courses, courseID) {
			result = append(result, id)
		}
	}
	return result, nil
}

func (r *DistributionRepository) PushCourse(ctx context.Context, distributionID, courseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.distributions[distributionID]
	if !ok {
		return false, common.NewNotFound(common.KindDistribution, distributionID)
	}

	var added bool
	d.Courses, added = push(d.Courses, courseID)
	return added, nil
}

func (r *DistributionRepository) PullCourse(ctx context.Context, distributionID, courseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.distributions[distributionID]
	if !ok {
		return false, nil
	}

	var removed bool
	d.Courses, removed = pull(d.Courses, courseID)
	return removed, nil
}

func (r *DistributionRepository) CourseIDs(ctx context.Context, distributionID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.distributions[distributionID]
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(d.Courses), nil
}

func (r *DistributionRepository) AdjustCurrent(ctx context.Context, distributionID string, delta float64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.distributions[distributionID]
	if !ok {
		return 0, common.NewNotFound(common.KindDistribution, distributionID)
	}
	d.Current += delta
	return d.Current, nil
}

func (r *DistributionRepository) SetCurrent(ctx context.Context, distributionID string, value float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.distributions[distributionID]
	if !ok {
		return common.NewNotFound(common.KindDistribution, distributionID)
	}
	d.Current = value
	return nil
}
