package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/wyfcoding/riskcanvas/pkg/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func dial(t *testing.T, lis *bufconn.Listener) healthpb.HealthClient {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	return resp.GetStatus()
}

func TestServer_HealthFollowsLifecycle(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	s := NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(nil),
	))

	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()

	client := dial(t, lis)
	for _, svc := range []string{"", ServiceName} {
		if got := check(t, client, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("service %q: got %v want SERVING", svc, got)
		}
	}

	s.MarkNotServing()
	if got := check(t, client, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("after MarkNotServing: got %v", got)
	}

	s.GracefulStop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
