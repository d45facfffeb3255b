// Package users stores User records and their per-year course lists.
package users

import (
	"context"

	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// PushYearCourse appends courseID to the user's year-field. It reports
	// false when the id was already present.
	PushYearCourse(ctx context.Context, userID, year, courseID string) (bool, error)
	// PullYearCourse removes courseID from the user's year-field. It reports
	// false when the id was not present.
	PullYearCourse(ctx context.Context, userID, year, courseID string) (bool, error)
	YearCourses(ctx context.Context, userID string) (map[string][]string, error)
}
