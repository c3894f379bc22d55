package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "statuscore.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
degraded_uptime_threshold: 99.5
poll_seconds: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DegradedUptimeThreshold != 99.5 {
		t.Errorf("DegradedUptimeThreshold = %v, want 99.5", cfg.DegradedUptimeThreshold)
	}
	if cfg.PollSeconds != 10 {
		t.Errorf("PollSeconds = %d, want 10", cfg.PollSeconds)
	}
	// Untouched keys keep their defaults.
	if cfg.HeartbeatSeconds != Default().HeartbeatSeconds {
		t.Errorf("HeartbeatSeconds = %d, want default %d", cfg.HeartbeatSeconds, Default().HeartbeatSeconds)
	}
}

func TestLoadRejectsMalformedYaml(t *testing.T) {
	path := writeConfig(t, "poll_seconds: [not a number")

	if _, err := Load(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"threshold too high", func(c *Config) { c.DegradedUptimeThreshold = 101 }, false},
		{"threshold negative", func(c *Config) { c.DegradedUptimeThreshold = -1 }, false},
		{"threshold zero", func(c *Config) { c.DegradedUptimeThreshold = 0 }, true},
		{"heartbeat zero", func(c *Config) { c.HeartbeatSeconds = 0 }, false},
		{"poll negative", func(c *Config) { c.PollSeconds = -5 }, false},
		{"refresh zero", func(c *Config) { c.UptimeRefreshSeconds = 0 }, false},
		{"parallelism zero", func(c *Config) { c.UptimeParallelism = 0 }, false},
		{"failure threshold zero", func(c *Config) { c.FailuresBeforeIncident = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "heartbeat_seconds: -1\n")

	if _, err := Load(path); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestIntervalAccessors(t *testing.T) {
	cfg := Config{HeartbeatSeconds: 25, PollSeconds: 30, UptimeRefreshSeconds: 60}

	if got := cfg.HeartbeatInterval(); got != 25*time.Second {
		t.Errorf("HeartbeatInterval = %v", got)
	}
	if got := cfg.PollInterval(); got != 30*time.Second {
		t.Errorf("PollInterval = %v", got)
	}
	if got := cfg.UptimeRefreshInterval(); got != time.Minute {
		t.Errorf("UptimeRefreshInterval = %v", got)
	}
}
