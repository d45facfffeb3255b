package services

import (
	"context"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	return s.repomanager.Courses(s.tx.Conn()).GetByID(ctx, courseID)
}

func (s *CourseService) ListByUser(ctx context.Context, userID string) ([]*models.Course, error) {
	return s.repomanager.Courses(s.tx.Conn()).ListByUser(ctx, userID)
}

// ListByDistribution returns the courses whose distribution ids include
// distributionID.
func (s *CourseService) ListByDistribution(ctx context.Context, distributionID string) ([]*models.Course, error) {
	return s.repomanager.Courses(s.tx.Conn()).ListByDistribution(ctx, distributionID)
}

// ListByTerm returns the courses of the user's year-field for year that
// were scheduled in term.
func (s *CourseService) ListByTerm(ctx context.Context, userID, year, term string) ([]*models.Course, error) {
	if year == "" || term == "" {
		return nil, common.InvalidArgument("year and term are required")
	}
	return s.repomanager.Courses(s.tx.Conn()).ListByTerm(ctx, userID, year, term)
}
