// Package finderctl drives a running finder server from a terminal.
package finderctl

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	entrypoint "github.com/teamfinder/mlbb-finder/internal/platform/cmd"
	"github.com/teamfinder/mlbb-finder/internal/platform/config"
	platformgrpc "github.com/teamfinder/mlbb-finder/internal/platform/grpc"
	"github.com/teamfinder/mlbb-finder/internal/platform/logging"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/api/grpc/turns"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/transport/console"
)

// Config holds finderctl configuration.
type Config struct {
	Addr        string        `env:"ADDR" envDefault:"localhost:8095"`
	Language    string        `env:"CTL_LANGUAGE"`
	DialTimeout time.Duration `env:"CTL_DIAL_TIMEOUT" envDefault:"5s"`
	LogLevel    string        `env:"CTL_LOG_LEVEL" envDefault:"warn"`
}

// ParseConfig parses MLBB_FINDER_-prefixed environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvWithPrefix(&cfg, config.EnvPrefix); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The finder gRPC server address")
	fs.StringVar(&cfg.Language, "lang", cfg.Language, "Language code sent with every turn")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "How long to wait for the server to become healthy")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run reads turns from stdin and prints the server's replies.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFinderCtl, func(ctx context.Context) error {
		return run(ctx, cfg, os.Stdin, os.Stdout)
	})
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := platformgrpc.DialHealthy(ctx, cfg.Addr, turns.ServiceName, cfg.DialTimeout, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	remote := turns.NewRemoteHandler(turns.NewClient(conn))
	return console.New(remote, in, out, cfg.Language, logger).Run(ctx)
}
