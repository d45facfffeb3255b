package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"google.golang.org/grpc"
)

// coordinator is the part of services.CourseService the gRPC API exposes.
type coordinator interface {
	AddCourse(ctx context.Context, in services.AddCourseInput) (*services.MutationResult, error)
	ChangeTakenStatus(ctx context.Context, courseID string, taken *bool) (*services.MutationResult, error)
	ChangeDistributionMembership(ctx context.Context, courseID string, distributionIDs []string) (*services.MutationResult, error)
	DeleteCourse(ctx context.Context, courseID string) (*services.MutationResult, error)
	ReconcileCourseMembership(ctx context.Context, courseID string) (*services.MutationResult, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Course, error)
	ListByDistribution(ctx context.Context, distributionID string) ([]*models.Course, error)
	ListByTerm(ctx context.Context, userID, year, term string) ([]*models.Course, error)
}

type GRPCServer struct {
	address string
	courses coordinator
	authn   auth.Authenticator
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, cs coordinator, authn auth.Authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		courses: cs,
		authn:   authn,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv.RegisterService(&PlannerServiceDesc, s)
	return srv
}

// Serve runs the gRPC server on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
