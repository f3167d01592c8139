package grpc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"erp/portal/internal/model"
)

type fakeSessions struct {
	active int
	unread map[model.ID]int
}

func (f fakeSessions) ActiveCount() int { return f.active }

func (f fakeSessions) UnreadForUser(userID model.ID) (int, bool) {
	n, ok := f.unread[userID]
	return n, ok
}

type queryClient struct {
	cc grpc.ClientConnInterface
}

func newQueryClient(cc grpc.ClientConnInterface) *queryClient {
	return &queryClient{cc: cc}
}

func (c *queryClient) ActiveSessions(ctx context.Context, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, activeSessionsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *queryClient) UnreadCount(ctx context.Context, userID string, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, unreadCountMethod, wrapperspb.String(userID), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func withServiceToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, serviceTokenHeader, token)
}

func startServer(t *testing.T, token string, sessions SessionSource) (*grpc.ClientConn, func(bool)) {
	t.Helper()
	interceptor, err := NewServiceAuthUnaryInterceptor(token)
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	RegisterPortalQueryServer(srv, NewQueryServer(sessions))
	report := BackendReporter(NewHealth(srv))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, report
}

func TestInterceptorRequiresToken(t *testing.T) {
	if _, err := NewServiceAuthUnaryInterceptor(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestQueryRequiresServiceToken(t *testing.T) {
	conn, _ := startServer(t, "secret", fakeSessions{active: 2})
	client := newQueryClient(conn)

	_, err := client.ActiveSessions(context.Background())
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	_, err = client.ActiveSessions(withServiceToken(context.Background(), "wrong"))
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	count, err := client.ActiveSessions(withServiceToken(context.Background(), "secret"))
	if err != nil || count != 2 {
		t.Fatalf("expected 2 active sessions, got %d (%v)", count, err)
	}
}

func TestUnreadCount(t *testing.T) {
	conn, _ := startServer(t, "secret", fakeSessions{unread: map[model.ID]int{"7": 3}})
	client := newQueryClient(conn)
	ctx := withServiceToken(context.Background(), "secret")

	count, err := client.UnreadCount(ctx, "7")
	if err != nil || count != 3 {
		t.Fatalf("expected 3 unread, got %d (%v)", count, err)
	}
	if _, err := client.UnreadCount(ctx, "8"); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := client.UnreadCount(ctx, " "); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestHealthSkipsTokenAndFollowsProbe(t *testing.T) {
	conn, report := startServer(t, "secret", fakeSessions{})
	health := healthpb.NewHealthClient(conn)

	resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before first probe, got %v", resp.GetStatus())
	}

	report(true)
	resp, err = health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: queryServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v (%v)", resp.GetStatus(), err)
	}
}
