// Package finder parses finder service flags and launches the service.
package finder

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	entrypoint "github.com/teamfinder/mlbb-finder/internal/platform/cmd"
	"github.com/teamfinder/mlbb-finder/internal/platform/logging"
	server "github.com/teamfinder/mlbb-finder/internal/services/finder/app"
)

// Config holds finder command configuration.
type Config struct {
	Port          int           `env:"MLBB_FINDER_PORT" envDefault:"8095"`
	MetricsAddr   string        `env:"MLBB_FINDER_METRICS_ADDR" envDefault:":9095"`
	DBPath        string        `env:"MLBB_FINDER_DB_PATH" envDefault:"data/finder.db"`
	ActiveWindow  time.Duration `env:"MLBB_FINDER_ACTIVE_WINDOW" envDefault:"10m"`
	SessionTTL    time.Duration `env:"MLBB_FINDER_SESSION_TTL" envDefault:"24h"`
	DefaultLocale string        `env:"MLBB_FINDER_DEFAULT_LOCALE" envDefault:"en-US"`
	LogLevel      string        `env:"MLBB_FINDER_LOG_LEVEL" envDefault:"info"`
	LogDev        bool          `env:"MLBB_FINDER_LOG_DEV"`
	Console       bool          `env:"MLBB_FINDER_CONSOLE"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The finder gRPC server port")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address (empty disables)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.DurationVar(&cfg.ActiveWindow, "active-window", cfg.ActiveWindow, "How recently a player must have acted to be discoverable")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "How long idle wizard and discovery state is kept")
	fs.StringVar(&cfg.DefaultLocale, "default-locale", cfg.DefaultLocale, "Locale for users without a language preference")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "Use the development console logger")
	fs.BoolVar(&cfg.Console, "console", cfg.Console, "Read turns from stdin and print replies to stdout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.ActiveWindow <= 0 {
		return Config{}, errors.New("active window must be positive")
	}
	if cfg.SessionTTL < 0 {
		return Config{}, errors.New("session ttl must not be negative")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig maps the command configuration onto the server.
func (c Config) ServerConfig(logger *zap.Logger, consoleIn io.Reader, consoleOut io.Writer) server.Config {
	cfg := server.Config{
		Addr:          fmt.Sprintf(":%d", c.Port),
		MetricsAddr:   c.MetricsAddr,
		DBPath:        c.DBPath,
		ActiveWindow:  c.ActiveWindow,
		SessionTTL:    c.SessionTTL,
		DefaultLocale: c.DefaultLocale,
		Logger:        logger,
	}
	if c.Console {
		cfg.ConsoleIn = consoleIn
		cfg.ConsoleOut = consoleOut
	}
	return cfg
}

// Run starts the finder service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFinder, func(ctx context.Context) error {
		logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return server.Run(ctx, cfg.ServerConfig(logger, os.Stdin, os.Stdout))
	})
}
