package grpc

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ucredit.PlannerService"

const codecName = "json"

// jsonCodec carries plain Go structs over gRPC as JSON
// (content type application/grpc+json).
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type AddCourseRequest struct {
	UserID          string   `json:"user_id"`
	DistributionIDs []string `json:"distribution_ids"`
	Title           string   `json:"title"`
	Number          string   `json:"number"`
	Term            string   `json:"term"`
	Year            string   `json:"year"`
	Credits         float64  `json:"credits"`
	Taken           bool     `json:"taken"`
}

type ChangeTakenStatusRequest struct {
	CourseID string `json:"course_id"`
	Taken    *bool  `json:"taken"`
}

type ChangeDistributionRequest struct {
	CourseID        string   `json:"course_id"`
	DistributionIDs []string `json:"distribution_ids"`
}

type CourseRequest struct {
	CourseID string `json:"course_id"`
}

// ListCoursesRequest selects by distribution, by user year and term, or by
// user, in that order of precedence.
type ListCoursesRequest struct {
	UserID         string `json:"user_id,omitempty"`
	DistributionID string `json:"distribution_id,omitempty"`
	Year           string `json:"year,omitempty"`
	Term           string `json:"term,omitempty"`
}

type Warning struct {
	Step     string `json:"step"`
	CourseID string `json:"course_id"`
	TargetID string `json:"target_id"`
	Error    string `json:"error"`
}

type CourseResponse struct {
	Course                       *models.Course `json:"course"`
	Warnings                     []Warning      `json:"warnings,omitempty"`
	CreditReconciliationRequired bool           `json:"credit_reconciliation_required,omitempty"`
	AffectedDistributionIDs      []string       `json:"affected_distribution_ids,omitempty"`
}

type ListCoursesResponse struct {
	Courses []*models.Course `json:"courses"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// PlannerServiceServer is implemented by GRPCServer.
type PlannerServiceServer interface {
	AddCourse(context.Context, *AddCourseRequest) (*CourseResponse, error)
	ChangeTakenStatus(context.Context, *ChangeTakenStatusRequest) (*CourseResponse, error)
	ChangeDistribution(context.Context, *ChangeDistributionRequest) (*CourseResponse, error)
	DeleteCourse(context.Context, *CourseRequest) (*CourseResponse, error)
	ReconcileCourse(context.Context, *CourseRequest) (*CourseResponse, error)
	GetCourse(context.Context, *CourseRequest) (*CourseResponse, error)
	ListCourses(context.Context, *ListCoursesRequest) (*ListCoursesResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(PlannerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PlannerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PlannerServiceServer), ctx, req.(*Req))
			})
		},
	}
}

// PlannerServiceDesc describes the service for grpc.Server.RegisterService.
var PlannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AddCourse", PlannerServiceServer.AddCourse),
		unary("ChangeTakenStatus", PlannerServiceServer.ChangeTakenStatus),
		unary("ChangeDistribution", PlannerServiceServer.ChangeDistribution),
		unary("DeleteCourse", PlannerServiceServer.DeleteCourse),
		unary("ReconcileCourse", PlannerServiceServer.ReconcileCourse),
		unary("GetCourse", PlannerServiceServer.GetCourse),
		unary("ListCourses", PlannerServiceServer.ListCourses),
		unary("Ping", PlannerServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ucredit/planner",
}

// PlannerClient calls PlannerService with the JSON codec.
type PlannerClient struct {
	cc grpc.ClientConnInterface
}

func NewPlannerClient(cc grpc.ClientConnInterface) *PlannerClient {
	return &PlannerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PlannerClient) AddCourse(ctx context.Context, in *AddCourseRequest, opts ...grpc.CallOption) (*CourseResponse, error) {
	return invoke[CourseResponse](ctx, c.cc, "AddCourse", in, opts)
}

func (c *PlannerClient) ChangeTakenStatus(ctx context.Context, in *ChangeTakenStatusRequest, opts ...grpc.CallOption) (*CourseResponse, error) {
	return invoke[CourseResponse](ctx, c.cc, "ChangeTakenStatus", in, opts)
}

func (c *PlannerClient) ChangeDistribution(ctx context.Context, in *ChangeDistributionRequest, opts ...grpc.CallOption) (*CourseResponse, error) {
	return invoke[CourseResponse](ctx, c.cc, "ChangeDistribution", in, opts)
}

func (c *PlannerClient) DeleteCourse(ctx context.Context, in *CourseRequest, opts ...grpc.CallOption) (*CourseResponse, error) {
	return invoke[CourseResponse](ctx, c.cc, "DeleteCourse", in, opts)
}

func (c *PlannerClient) ReconcileCourse(ctx context.Context, in *CourseRequest, opts ...grpc.CallOption) (*CourseResponse, error) {
	return invoke[CourseResponse](ctx, c.cc, "ReconcileCourse", in, opts)
}

func (c *PlannerClient) GetCourse(ctx context.Context, in *CourseRequest, opts ...grpc.CallOption) (*CourseResponse, error) {
	return invoke[CourseResponse](ctx, c.cc, "GetCourse", in, opts)
}

func (c *PlannerClient) ListCourses(ctx context.Context, in *ListCoursesRequest, opts ...grpc.CallOption) (*ListCoursesResponse, error) {
	return invoke[ListCoursesResponse](ctx, c.cc, "ListCourses", in, opts)
}

func (c *PlannerClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, "Ping", in, opts)
}
