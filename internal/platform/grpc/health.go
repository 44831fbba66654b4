// Package grpc holds client-side helpers for reaching finder gRPC servers.
package grpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/teamfinder/mlbb-finder/internal/platform/logging"
)

const (
	healthCallTimeout = time.Second
	initialBackoff    = 100 * time.Millisecond
	maxBackoff        = time.Second
)

// WaitForHealth polls the health service until service reports SERVING or
// ctx ends. An empty service checks the server as a whole.
func WaitForHealth(ctx context.Context, conn gogrpc.ClientConnInterface, service string, logger *zap.Logger) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger = logging.OrNop(logger).With(zap.String("service", service))
	client := grpc_health_v1.NewHealthClient(conn)

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, healthCallTimeout)
		resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			logger.Debug("health check serving", zap.Int("attempt", attempt))
			return nil
		}
		if err != nil {
			logger.Debug("waiting for health", zap.Int("attempt", attempt), zap.Error(err))
		} else {
			logger.Debug("waiting for health", zap.Int("attempt", attempt), zap.Stringer("status", resp.GetStatus()))
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
