// Package distributions stores Distribution records, their course sets and
// credit totals.
package distributions

import (
	"context"

	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Distribution) (*models.Distribution, error)
	GetByID(ctx context.Context, id string) (*models.Distribution, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Distribution, error)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
	// GetForUpdate is GetByID that also locks the distribution row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Distribution, error)
	// ListIDsByCourse returns the distributions whose course set contains
	// courseID.
	ListIDsByCourse(ctx context.Context, courseID string) ([]string, error)

	// PushCourse adds courseID to the distribution's course set and reports
	// whether the set changed.
	PushCourse(ctx context.Context, distributionID, courseID string) (bool, error)
	// PullCourse removes courseID from the course set and reports whether the
	// set changed.
	PullCourse(ctx context.Context, distributionID, courseID string) (bool, error)
	CourseIDs(ctx context.Context, distributionID string) ([]string, error)

	// AdjustCurrent atomically adds delta to the credit total and returns the
	// new value.
	AdjustCurrent(ctx context.Context, distributionID string, delta float64) (float64, error)
	SetCurrent(ctx context.Context, distributionID string, value float64) error
}
