// Package cli implements an interactive command-line client for the
// planner's gRPC API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/ucredit/internal/client/config"
	"github.com/dmitrijs2005/ucredit/internal/common"
	gs "github.com/dmitrijs2005/ucredit/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// planner is the subset of gs.PlannerClient the CLI uses.
type planner interface {
	AddCourse(ctx context.Context, in *gs.AddCourseRequest, opts ...grpc.CallOption) (*gs.CourseResponse, error)
	ChangeTakenStatus(ctx context.Context, in *gs.ChangeTakenStatusRequest, opts ...grpc.CallOption) (*gs.CourseResponse, error)
	ChangeDistribution(ctx context.Context, in *gs.ChangeDistributionRequest, opts ...grpc.CallOption) (*gs.CourseResponse, error)
	DeleteCourse(ctx context.Context, in *gs.CourseRequest, opts ...grpc.CallOption) (*gs.CourseResponse, error)
	ReconcileCourse(ctx context.Context, in *gs.CourseRequest, opts ...grpc.CallOption) (*gs.CourseResponse, error)
	GetCourse(ctx context.Context, in *gs.CourseRequest, opts ...grpc.CallOption) (*gs.CourseResponse, error)
	ListCourses(ctx context.Context, in *gs.ListCoursesRequest, opts ...grpc.CallOption) (*gs.ListCoursesResponse, error)
	Ping(ctx context.Context, in *gs.PingRequest, opts ...grpc.CallOption) (*gs.PingResponse, error)
}

type App struct {
	config *config.Config
	client planner
	conn   io.Closer
	out    io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	conn, err := grpc.NewClient(cfg.ServerEndpointAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &App{config: cfg, client: gs.NewPlannerClient(conn), conn: conn, out: os.Stdout}, nil
}

// callContext bounds a single call and attaches the access token.
func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	if a.config.AccessToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, a.config.AccessToken)
	}
	return ctx, cancel
}

// Run reads commands from stdin until EOF or "exit".
func (a *App) Run(ctx context.Context) {
	defer a.conn.Close()

	fmt.Fprintln(a.out, "uCredit CLI (type 'help' for commands)")
	runREPL(ctx, a, bufio.NewScanner(os.Stdin), a.out)
}
