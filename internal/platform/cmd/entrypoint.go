// Package cmd holds the startup helpers shared by finder commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/teamfinder/mlbb-finder/internal/platform/config"
	"github.com/teamfinder/mlbb-finder/internal/platform/otel"
	"github.com/teamfinder/mlbb-finder/internal/platform/timeouts"
)

const (
	// ServiceFinder names the finder process in telemetry and logs.
	ServiceFinder = "mlbb-finder"
	// ServiceFinderCtl names the remote console client.
	ServiceFinderCtl = "mlbb-finderctl"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs applies command-line flags on top of the environment defaults.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the tracer provider for service, runs run, and
// flushes pending spans before returning run's error.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case run == nil:
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Telemetry)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s: flush telemetry: %v", service, err)
		}
	}()
	return run(ctx)
}
