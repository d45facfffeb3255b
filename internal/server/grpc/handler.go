package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) statusError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrInvalidReference),
		errors.Is(err, common.ErrInvalidArgument),
		errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func courseResponse(res *services.MutationResult) *CourseResponse {
	out := &CourseResponse{
		Course:                       res.Course,
		CreditReconciliationRequired: res.CreditReconciliationRequired,
		AffectedDistributionIDs:      res.AffectedDistributionIDs,
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, Warning{Step: w.Step, CourseID: w.CourseID, TargetID: w.TargetID, Error: w.Err.Error()})
	}
	return out
}

func (s *GRPCServer) AddCourse(ctx context.Context, req *AddCourseRequest) (*CourseResponse, error) {
	res, err := s.courses.AddCourse(ctx, services.AddCourseInput{
		UserID:          req.UserID,
		DistributionIDs: req.DistributionIDs,
		Title:           req.Title,
		Number:          req.Number,
		Term:            req.Term,
		Year:            req.Year,
		Credits:         req.Credits,
		Taken:           req.Taken,
	})
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return courseResponse(res), nil
}

func (s *GRPCServer) ChangeTakenStatus(ctx context.Context, req *ChangeTakenStatusRequest) (*CourseResponse, error) {
	res, err := s.courses.ChangeTakenStatus(ctx, req.CourseID, req.Taken)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return courseResponse(res), nil
}

func (s *GRPCServer) ChangeDistribution(ctx context.Context, req *ChangeDistributionRequest) (*CourseResponse, error) {
	res, err := s.courses.ChangeDistributionMembership(ctx, req.CourseID, req.DistributionIDs)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return courseResponse(res), nil
}

func (s *GRPCServer) DeleteCourse(ctx context.Context, req *CourseRequest) (*CourseResponse, error) {
	res, err := s.courses.DeleteCourse(ctx, req.CourseID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return courseResponse(res), nil
}

// ReconcileCourse applies a pending distribution move of the course.
func (s *GRPCServer) ReconcileCourse(ctx context.Context, req *CourseRequest) (*CourseResponse, error) {
	res, err := s.courses.ReconcileCourseMembership(ctx, req.CourseID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return courseResponse(res), nil
}

func (s *GRPCServer) GetCourse(ctx context.Context, req *CourseRequest) (*CourseResponse, error) {
	c, err := s.courses.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &CourseResponse{Course: c}, nil
}

func (s *GRPCServer) ListCourses(ctx context.Context, req *ListCoursesRequest) (*ListCoursesResponse, error) {
	var (
		list []*models.Course
		err  error
	)
	switch {
	case req.DistributionID != "":
		list, err = s.courses.ListByDistribution(ctx, req.DistributionID)
	case req.UserID != "" && (req.Year != "" || req.Term != ""):
		list, err = s.courses.ListByTerm(ctx, req.UserID, req.Year, req.Term)
	case req.UserID != "":
		list, err = s.courses.ListByUser(ctx, req.UserID)
	default:
		err = common.InvalidArgument("user_id or distribution_id is required")
	}
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	if list == nil {
		list = []*models.Course{}
	}
	return &ListCoursesResponse{Courses: list}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}
