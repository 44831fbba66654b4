package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const testService = "finder.v1.TurnService"

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) (string, *health.Server) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(testService, status)
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)
	return listener.Addr().String(), healthServer
}

func TestDialHealthySucceedsWhenServing(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)

	conn, err := DialHealthy(context.Background(), addr, testService, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDialHealthyWaitsForTransition(t *testing.T) {
	addr, healthServer := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	go func() {
		time.Sleep(150 * time.Millisecond)
		healthServer.SetServingStatus(testService, grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	conn, err := DialHealthy(context.Background(), addr, testService, 3*time.Second, nil)
	if err != nil {
		t.Fatalf("dial after transition: %v", err)
	}
	_ = conn.Close()
}

func TestDialHealthyReportsHealthStage(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	start := time.Now()
	_, err := DialHealthy(context.Background(), addr, testService, 300*time.Millisecond, nil)
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("err = %v, want DialError", err)
	}
	if dialErr.Stage != DialStageHealth {
		t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageHealth)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout did not bound health wait, took %v", elapsed)
	}
}

func TestDialHealthyReportsConnectStage(t *testing.T) {
	// No transport credentials.
	_, err := DialHealthy(context.Background(), "127.0.0.1:1", testService, time.Second, nil, gogrpc.WithUserAgent("finder-test"))
	var dialErr *DialError
	if !errors.As(err, &dialErr) || dialErr.Stage != DialStageConnect {
		t.Fatalf("err = %v, want connect stage DialError", err)
	}
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestDialErrorFormatting(t *testing.T) {
	err := &DialError{Stage: DialStageConnect, Addr: "x:1", Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "gRPC connect x:1") {
		t.Fatalf("error = %q", err.Error())
	}
	var nilErr *DialError
	if nilErr.Error() == "" || nilErr.Unwrap() != nil {
		t.Fatal("nil DialError must format and unwrap safely")
	}
}
