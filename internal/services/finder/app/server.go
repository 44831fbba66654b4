// Package server wires the finder runtime and its serving lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/platform/logging"
	"github.com/teamfinder/mlbb-finder/internal/platform/timeouts"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/api/grpc/turns"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/bot"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/discovery"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/matching"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/metrics"
	findersqlite "github.com/teamfinder/mlbb-finder/internal/services/finder/storage/sqlite"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/transport/console"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/wizard"
)

// Config describes one finder server.
type Config struct {
	// Addr is the gRPC listen address.
	Addr string
	// MetricsAddr is the Prometheus listen address; empty disables it.
	MetricsAddr   string
	DBPath        string
	ActiveWindow  time.Duration
	SessionTTL    time.Duration
	DefaultLocale string
	// ConsoleIn enables the console transport when set.
	ConsoleIn  io.Reader
	ConsoleOut io.Writer
	Logger     *zap.Logger
}

// Server hosts the finder gRPC API, metrics endpoint, and storage lifecycle.
type Server struct {
	listener        net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	metricsListener net.Listener
	metricsServer   *http.Server
	console         *console.Transport
	store           *findersqlite.Store
	logger          *zap.Logger
}

// New creates a finder server from cfg. Listeners are bound immediately so
// Addr and MetricsAddr are valid before Serve.
func New(cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)
	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	if err := bundle.CheckParity(); err != nil {
		return nil, err
	}
	store, err := openFinderStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	finderMetrics := metrics.New(registry)
	router, err := buildRouter(cfg, store, bundle, finderMetrics, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	finderMetrics.RegisterOpenState(router.OpenFlows, router.OpenSessions)

	srv := &Server{store: store, logger: logger}
	srv.listener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		srv.metricsListener, err = net.Listen("tcp", addr)
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		srv.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: timeouts.ReadHeader}
	}

	srv.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	srv.health = health.NewServer()
	turns.Register(srv.grpcServer, turns.NewService(router, bundle))
	grpc_health_v1.RegisterHealthServer(srv.grpcServer, srv.health)
	srv.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	srv.health.SetServingStatus(turns.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.ConsoleIn != nil {
		out := cfg.ConsoleOut
		if out == nil {
			out = io.Discard
		}
		srv.console = console.New(router, cfg.ConsoleIn, out, cfg.DefaultLocale, logger.Named("console"))
	}
	return srv, nil
}

func buildRouter(cfg Config, store *findersqlite.Store, bundle *catalog.Bundle, m *metrics.Metrics, logger *zap.Logger) (*bot.Router, error) {
	flows, err := wizard.New(wizard.Config{Profiles: store, Catalog: bundle, StateTTL: cfg.SessionTTL})
	if err != nil {
		return nil, fmt.Errorf("build wizard: %w", err)
	}
	sessions, err := discovery.New(discovery.Config{
		Profiles:     store,
		Likes:        store,
		Catalog:      bundle,
		ActiveWindow: cfg.ActiveWindow,
		SessionTTL:   cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build discovery: %w", err)
	}
	coordinator, err := matching.New(matching.Config{
		Profiles:      store,
		Likes:         store,
		Discovery:     sessions,
		Catalog:       bundle,
		DefaultLocale: cfg.DefaultLocale,
	})
	if err != nil {
		return nil, fmt.Errorf("build matching: %w", err)
	}
	router, err := bot.New(bot.Config{
		Profiles:      store,
		Wizard:        flows,
		Discovery:     sessions,
		Matching:      coordinator,
		Catalog:       bundle,
		Metrics:       m,
		Logger:        logger.Named("bot"),
		DefaultLocale: cfg.DefaultLocale,
		PendingTTL:    cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return router, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the metrics listener address, or "" when disabled.
func (s *Server) MetricsAddr() string {
	if s == nil || s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Run creates and serves a finder server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve runs every configured listener until ctx is cancelled or one of them
// fails, then stops the rest gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	group, groupCtx := errgroup.WithContext(ctx)
	s.logger.Info("finder server listening", zap.String("addr", s.Addr()), zap.String("metrics_addr", s.MetricsAddr()))

	group.Go(func() error {
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	if s.metricsServer != nil {
		group.Go(func() error {
			if err := s.metricsServer.Serve(s.metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}
			return nil
		})
	}
	if s.console != nil {
		group.Go(func() error {
			if err := s.console.Run(groupCtx); err != nil {
				return fmt.Errorf("console transport: %w", err)
			}
			s.logger.Info("console input closed")
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		s.shutdown()
		return nil
	})
	return group.Wait()
}

func (s *Server) shutdown() {
	s.health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	timer := time.NewTimer(timeouts.Shutdown)
	defer timer.Stop()
	select {
	case <-stopped:
	case <-timer.C:
		s.logger.Warn("graceful stop timed out")
		s.grpcServer.Stop()
		<-stopped
	}
	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.Warn("metrics shutdown", zap.Error(err))
		}
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.metricsServer != nil {
		_ = s.metricsServer.Close()
	}
	if s.metricsListener != nil {
		_ = s.metricsListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close finder store", zap.Error(err))
		}
		s.store = nil
	}
}

func openFinderStore(path string) (*findersqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join("data", "finder.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := findersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open finder sqlite store: %w", err)
	}
	return store, nil
}
