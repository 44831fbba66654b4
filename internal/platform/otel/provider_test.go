package otel

import (
	"context"
	"testing"
)

func TestLoadSettings(t *testing.T) {
	t.Setenv("MLBB_FINDER_OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("MLBB_FINDER_OTEL_ENABLED", "")
	t.Setenv("MLBB_FINDER_OTEL_SAMPLE_RATIO", "0.25")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.Endpoint != "http://collector:4318" || !s.Enabled || s.SampleRatio != 0.25 {
		t.Fatalf("settings = %+v", s)
	}
}

func TestLoadSettingsRejectsBadRatio(t *testing.T) {
	t.Setenv("MLBB_FINDER_OTEL_SAMPLE_RATIO", "1.5")
	if _, err := LoadSettings(); err == nil {
		t.Fatal("expected error for ratio above 1")
	}
}

func TestSetupWith(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{name: "noop without endpoint", settings: Settings{Enabled: true}},
		{name: "noop when disabled", settings: Settings{Endpoint: "http://localhost:4318"}},
		// Non-routable address: nothing is exported before shutdown.
		{name: "provider with endpoint", settings: Settings{Endpoint: "http://192.0.2.1:4318", Enabled: true, SampleRatio: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shutdown, err := SetupWith(context.Background(), "finder-test", tc.settings)
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}

func TestSetupNoopFromEnvironment(t *testing.T) {
	t.Setenv("MLBB_FINDER_OTEL_ENDPOINT", "")
	shutdown, err := Setup(context.Background(), "noop-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}
