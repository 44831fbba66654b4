// Package logging builds the structured zap loggers used by finder services.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamfinder/mlbb-finder/internal/platform/requestctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console logger when development is set.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to a zap level; blank means info.
func ParseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return lvl, nil
}

// OrNop returns logger, or a no-op logger when logger is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// FromContext returns logger annotated with the turn carried by ctx.
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	logger = OrNop(logger)
	turn, ok := requestctx.TurnFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(zap.String("turn_id", turn.ID), zap.String("user_id", turn.UserID))
}
