package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// ---- fakes ----

type fakeCoordinator struct {
	coordinator

	res     *services.MutationResult
	course  *models.Course
	list    []*models.Course
	err     error
	lastUse string
}

func (f *fakeCoordinator) AddCourse(ctx context.Context, in services.AddCourseInput) (*services.MutationResult, error) {
	return f.res, f.err
}

func (f *fakeCoordinator) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	return f.course, f.err
}

func (f *fakeCoordinator) ListByUser(ctx context.Context, userID string) ([]*models.Course, error) {
	f.lastUse = "user"
	return f.list, f.err
}

func (f *fakeCoordinator) ListByDistribution(ctx context.Context, distributionID string) ([]*models.Course, error) {
	f.lastUse = "distribution"
	return f.list, f.err
}

func (f *fakeCoordinator) ListByTerm(ctx context.Context, userID, year, term string) ([]*models.Course, error) {
	f.lastUse = "term"
	return f.list, f.err
}

func (f *fakeCoordinator) ReconcileCourseMembership(ctx context.Context, courseID string) (*services.MutationResult, error) {
	f.lastUse = "reconcile:" + courseID
	return f.res, f.err
}

func newServer(c coordinator) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, c, auth.NewJWTAuthenticator("k", time.Hour))
}

// ---- unit tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeCoordinator{})
	resp, err := s.Ping(context.Background(), &PingRequest{})
	if err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	if resp.Status != "OK" {
		t.Fatalf("unexpected status: %q", resp.Status)
	}
}

func TestAddCourse_ErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{common.NewNotFound(common.KindUser, "u"), codes.NotFound},
		{&common.InvalidReferenceError{UserID: "u", IDs: []string{"d"}}, codes.InvalidArgument},
		{common.InvalidArgument("bad"), codes.InvalidArgument},
		{common.ErrValidation, codes.InvalidArgument},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{errors.New("db down"), codes.Internal},
	}

	for _, tt := range tests {
		s := newServer(&fakeCoordinator{err: tt.err})
		_, err := s.AddCourse(context.Background(), &AddCourseRequest{})
		if status.Code(err) != tt.want {
			t.Fatalf("%v: want %v, got %v", tt.err, tt.want, status.Code(err))
		}
	}
}

func TestAddCourse_Warnings(t *testing.T) {
	res := &services.MutationResult{
		Course: &models.Course{ID: "c1"},
		Warnings: []*common.PropagationError{
			{Step: "distribution.link", CourseID: "c1", TargetID: "d1", Err: errors.New("timeout")},
		},
	}
	s := newServer(&fakeCoordinator{res: res})

	resp, err := s.AddCourse(context.Background(), &AddCourseRequest{})
	if err != nil {
		t.Fatalf("AddCourse error: %v", err)
	}
	if resp.Course.ID != "c1" {
		t.Fatalf("unexpected course: %+v", resp.Course)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].TargetID != "d1" || resp.Warnings[0].Error != "timeout" {
		t.Fatalf("unexpected warnings: %+v", resp.Warnings)
	}
}

func TestReconcileCourse(t *testing.T) {
	f := &fakeCoordinator{res: &services.MutationResult{Course: &models.Course{ID: "c1"}}}
	resp, err := newServer(f).ReconcileCourse(context.Background(), &CourseRequest{CourseID: "c1"})
	if err != nil {
		t.Fatalf("ReconcileCourse error: %v", err)
	}
	if f.lastUse != "reconcile:c1" || resp.Course.ID != "c1" {
		t.Fatalf("unexpected call %q / %+v", f.lastUse, resp.Course)
	}

	f = &fakeCoordinator{err: &common.InvalidReferenceError{UserID: "u", IDs: []string{"elsewhere"}}}
	_, err = newServer(f).ReconcileCourse(context.Background(), &CourseRequest{CourseID: "c1"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", status.Code(err))
	}
}

func TestListCourses_Selects(t *testing.T) {
	tests := []struct {
		req  ListCoursesRequest
		want string
	}{
		{ListCoursesRequest{DistributionID: "d1", UserID: "u"}, "distribution"},
		{ListCoursesRequest{UserID: "u", Year: "freshman", Term: "fall"}, "term"},
		{ListCoursesRequest{UserID: "u"}, "user"},
	}

	for _, tt := range tests {
		f := &fakeCoordinator{}
		resp, err := newServer(f).ListCourses(context.Background(), &tt.req)
		if err != nil {
			t.Fatalf("ListCourses error: %v", err)
		}
		if f.lastUse != tt.want {
			t.Fatalf("want %s query, got %s", tt.want, f.lastUse)
		}
		if resp.Courses == nil {
			t.Fatal("courses must not be nil")
		}
	}

	_, err := newServer(&fakeCoordinator{}).ListCourses(context.Background(), &ListCoursesRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", status.Code(err))
	}
}

// ---- end to end over bufconn ----

func dialPlanner(t *testing.T) (client *PlannerClient, distributionID, token string) {
	t.Helper()

	tx := dbx.NewLocalTransactor()
	m := repomanager.NewMemoryRepositoryManager()
	log := logging.Nop{}
	users := services.NewUserService(tx, m, log)
	dists := services.NewDistributionService(tx, m, log)
	courses := services.NewCourseService(tx, m, outbox.NewMemoryStore(), metrics.New(), log)

	ctx := context.Background()
	if _, err := users.Login(ctx, &auth.UserClaims{UserID: "mia"}); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	d, err := dists.Create(ctx, services.CreateDistributionInput{UserID: "mia", Name: "Mathematics", Required: 12})
	if err != nil {
		t.Fatalf("Create distribution error: %v", err)
	}

	authn := auth.NewJWTAuthenticator("secret", time.Hour)
	token, err = authn.Issue(auth.UserClaims{UserID: "mia"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srvCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = NewGRPCServer("bufconn", log, courses, authn).Serve(srvCtx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return NewPlannerClient(conn), d.ID, token
}

func TestPlannerService_EndToEnd(t *testing.T) {
	client, distID, token := dialPlanner(t)
	ctx := context.Background()
	authed := metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)

	if _, err := client.AddCourse(ctx, &AddCourseRequest{UserID: "mia", Year: "freshman", Credits: 4}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated without token, got %v", status.Code(err))
	}

	added, err := client.AddCourse(authed, &AddCourseRequest{
		UserID: "mia", DistributionIDs: []string{distID}, Year: "freshman", Term: "fall", Credits: 4,
	})
	if err != nil {
		t.Fatalf("AddCourse error: %v", err)
	}
	courseID := added.Course.ID

	taken := true
	changed, err := client.ChangeTakenStatus(authed, &ChangeTakenStatusRequest{CourseID: courseID, Taken: &taken})
	if err != nil {
		t.Fatalf("ChangeTakenStatus error: %v", err)
	}
	if !changed.Course.Taken {
		t.Fatal("course should be taken")
	}

	moved, err := client.ChangeDistribution(authed, &ChangeDistributionRequest{CourseID: courseID, DistributionIDs: []string{}})
	if err != nil {
		t.Fatalf("ChangeDistribution error: %v", err)
	}
	if !moved.CreditReconciliationRequired || len(moved.AffectedDistributionIDs) != 1 {
		t.Fatalf("unexpected membership result: %+v", moved)
	}

	if _, err := client.ReconcileCourse(ctx, &CourseRequest{CourseID: courseID}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated without token, got %v", status.Code(err))
	}
	reconciled, err := client.ReconcileCourse(authed, &CourseRequest{CourseID: courseID})
	if err != nil {
		t.Fatalf("ReconcileCourse error: %v", err)
	}
	if len(reconciled.Warnings) != 0 || len(reconciled.Course.DistributionIDs) != 0 {
		t.Fatalf("unexpected reconcile result: %+v", reconciled)
	}

	list, err := client.ListCourses(ctx, &ListCoursesRequest{UserID: "mia", Year: "freshman", Term: "fall"})
	if err != nil {
		t.Fatalf("ListCourses error: %v", err)
	}
	if len(list.Courses) != 1 || list.Courses[0].ID != courseID {
		t.Fatalf("unexpected courses: %+v", list.Courses)
	}

	if _, err := client.DeleteCourse(authed, &CourseRequest{CourseID: courseID}); err != nil {
		t.Fatalf("DeleteCourse error: %v", err)
	}
	if _, err := client.GetCourse(ctx, &CourseRequest{CourseID: courseID}); status.Code(err) != codes.NotFound {
		t.Fatalf("want NotFound after delete, got %v", status.Code(err))
	}

	pong, err := client.Ping(ctx, &PingRequest{})
	if err != nil || pong.Status != "OK" {
		t.Fatalf("Ping: %v %+v", err, pong)
	}
}
