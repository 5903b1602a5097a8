package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"openhours/internal/domain"
	"openhours/internal/facility"
	"openhours/internal/hours"
	"openhours/internal/httpapi"
	"openhours/pkg/openhours"
)

const (
	hoursServiceName  = "openhours.v1.Hours"
	resolveFullMethod = "/" + hoursServiceName + "/Resolve"
)

// HoursServer is the server API of the openhours.v1.Hours service.
// Requests and responses are generic structs carrying the same fields as
// the HTTP status endpoint: a request holds "facility" and an optional
// RFC3339 "at"; a response has the StatusResponse JSON fields.
type HoursServer interface {
	Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var hoursServiceDesc = grpc.ServiceDesc{
	ServiceName: hoursServiceName,
	HandlerType: (*HoursServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "openhours/v1/hours.proto",
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HoursServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: resolveFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HoursServer).Resolve(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// HoursService resolves facility opening status over gRPC.
type HoursService struct {
	registry *facility.Registry
	log      *slog.Logger
	now      func() time.Time
}

var _ HoursServer = (*HoursService)(nil)

// NewHoursService creates an HoursService over the registered facilities.
func NewHoursService(registry *facility.Registry, log *slog.Logger) *HoursService {
	if log == nil {
		log = slog.Default()
	}
	return &HoursService{registry: registry, log: log, now: time.Now}
}

// RegisterGRPC registers the service on the given gRPC server instance.
func (s *HoursService) RegisterGRPC(gs *grpc.Server) {
	gs.RegisterService(&hoursServiceDesc, s)
}

// Resolve answers the opening status of req's facility at req's instant.
func (s *HoursService) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	id := fields["facility"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "facility is required")
	}
	f, ok := s.registry.Get(id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "facility %q not found", id)
	}

	at := s.now()
	if v := fields["at"].GetStringValue(); v != "" {
		t, err := domain.ParseInstant(v, f.Location)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		at = t
	}

	out, err := f.Calendar.Status(ctx, at)
	if err != nil {
		s.log.Warn("grpc resolve failed", "facility", id, "error", err)
		return nil, status.Error(errorCode(err), err.Error())
	}

	data, err := json.Marshal(httpapi.StatusResponse(f, out))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	resp := new(structpb.Struct)
	if err := protojson.Unmarshal(data, resp); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// errorCode maps resolution errors to gRPC status codes.
func errorCode(err error) codes.Code {
	var invalid *domain.InvalidRuleError
	var lookup *hours.HolidayLookupError
	switch {
	case errors.As(err, &invalid):
		return codes.FailedPrecondition
	case errors.As(err, &lookup):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// HoursClient calls the openhours.v1.Hours service.
type HoursClient struct {
	cc grpc.ClientConnInterface
}

// NewHoursClient wraps an established connection.
func NewHoursClient(cc grpc.ClientConnInterface) *HoursClient {
	return &HoursClient{cc: cc}
}

// Dial connects to a gRPC server without transport security.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn, nil
}

// Resolve asks for the facility's status at the given instant; a zero at
// uses the server's clock.
func (c *HoursClient) Resolve(ctx context.Context, facilityID string, at time.Time, opts ...grpc.CallOption) (*openhours.StatusResponse, error) {
	fields := map[string]any{"facility": facilityID}
	if !at.IsZero() {
		fields["at"] = at.Format(time.RFC3339)
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, resolveFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	data, err := protojson.Marshal(out)
	if err != nil {
		return nil, err
	}
	var resp openhours.StatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding resolve response: %w", err)
	}
	return &resp, nil
}
