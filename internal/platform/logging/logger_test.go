package logging

import (
	"context"
	"testing"

	"github.com/teamfinder/mlbb-finder/internal/platform/requestctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: " WARN ", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "chatty", want: zapcore.InfoLevel, wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewBuildsLoggerAtLevel(t *testing.T) {
	logger, err := New("warn", false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error must be enabled at warn level")
	}

	if _, err := New("nope", true); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}

func TestFromContextAddsTurnFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := requestctx.WithTurn(context.Background(), requestctx.Turn{ID: "turn-1", UserID: "user-1"})
	FromContext(ctx, base).Info("handled")
	FromContext(context.Background(), base).Info("bare")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["turn_id"] != "turn-1" || fields["user_id"] != "user-1" {
		t.Fatalf("fields = %v, want turn and user ids", fields)
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("bare entry fields = %v, want none", entries[1].Context)
	}
}

func TestFromContextNilLogger(t *testing.T) {
	if FromContext(context.Background(), nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
