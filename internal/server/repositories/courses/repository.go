// Package courses stores Course records and their distribution membership.
package courses

import (
	"context"

	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Course) (*models.Course, error)
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// GetForUpdate is GetByID that also keeps the course from changing until
	// the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Course, error)

	// SetTaken stores taken and reports whether the stored value changed.
	// Of several concurrent identical calls at most one observes a change.
	// SetTaken, SetDistributionIDs and Delete lock the course row; callers
	// run them in a transaction together with the updates that depend on
	// the returned course.
	SetTaken(ctx context.Context, id string, taken bool) (*models.Course, bool, error)
	SetDistributionIDs(ctx context.Context, id string, distributionIDs []string) (*models.Course, error)
	// Delete removes the course and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*models.Course, error)

	ListByUser(ctx context.Context, userID string) ([]*models.Course, error)
	// ListByDistribution returns courses whose distribution_ids contain distributionID.
	ListByDistribution(ctx context.Context, distributionID string) ([]*models.Course, error)
	// ListByIDs skips ids that do not exist.
	ListByIDs(ctx context.Context, ids []string) ([]*models.Course, error)
	// ListByTerm returns courses listed in the user's year-field for year
	// whose term matches.
	ListByTerm(ctx context.Context, userID, year, term string) ([]*models.Course, error)
}
