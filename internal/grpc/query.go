package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"erp/portal/internal/model"
)

const (
	queryServiceName     = "erp.portal.v1.PortalQuery"
	activeSessionsMethod = "/" + queryServiceName + "/ActiveSessions"
	unreadCountMethod    = "/" + queryServiceName + "/UnreadCount"
)

// PortalQueryServer answers other services' questions about live portal
// sessions. Messages are protobuf well-known types, so no generated code is
// needed on either side.
type PortalQueryServer interface {
	ActiveSessions(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	UnreadCount(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

var PortalQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: queryServiceName,
	HandlerType: (*PortalQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ActiveSessions", Handler: activeSessionsHandler},
		{MethodName: "UnreadCount", Handler: unreadCountHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "erp/portal/v1/query.proto",
}

func RegisterPortalQueryServer(s grpc.ServiceRegistrar, srv PortalQueryServer) {
	s.RegisterService(&PortalQueryServiceDesc, srv)
}

func activeSessionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortalQueryServer).ActiveSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: activeSessionsMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PortalQueryServer).ActiveSessions(ctx, req.(*emptypb.Empty))
	})
}

func unreadCountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortalQueryServer).UnreadCount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: unreadCountMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PortalQueryServer).UnreadCount(ctx, req.(*wrapperspb.StringValue))
	})
}

type SessionSource interface {
	ActiveCount() int
	UnreadForUser(userID model.ID) (int, bool)
}

type QueryServer struct {
	sessions SessionSource
}

func NewQueryServer(sessions SessionSource) *QueryServer {
	return &QueryServer{sessions: sessions}
}

func (s *QueryServer) ActiveSessions(_ context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(int64(s.sessions.ActiveCount())), nil
}

func (s *QueryServer) UnreadCount(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	userID := strings.TrimSpace(req.GetValue())
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing_user_id")
	}
	count, ok := s.sessions.UnreadForUser(model.ID(userID))
	if !ok {
		return nil, status.Error(codes.NotFound, "no_active_session")
	}
	return wrapperspb.Int64(int64(count)), nil
}
