package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the aggregation and distribution tunables. Secrets and the
// database DSN stay in the environment; this file is for behavior knobs
// that need one canonical value across every view of the system.
type Config struct {
	// DegradedUptimeThreshold is the 24h availability percentage below
	// which an otherwise-healthy service reports degraded.
	DegradedUptimeThreshold float64 `yaml:"degraded_uptime_threshold"`

	// HeartbeatSeconds controls how often the push channel emits heartbeat
	// messages when nothing changed.
	HeartbeatSeconds int `yaml:"heartbeat_seconds"`

	// PollSeconds is the fallback polling cadence for viewers whose push
	// channel is down.
	PollSeconds int `yaml:"poll_seconds"`

	// UptimeRefreshSeconds is how often the rolling availability windows
	// are recomputed for every monitor, off the check hot path.
	UptimeRefreshSeconds int `yaml:"uptime_refresh_seconds"`

	// UptimeParallelism bounds how many monitors are recomputed at once.
	UptimeParallelism int `yaml:"uptime_parallelism"`

	// FailuresBeforeIncident is how many consecutive failed checks open an
	// incident automatically.
	FailuresBeforeIncident int `yaml:"failures_before_incident"`
}

func Default() Config {
	return Config{
		DegradedUptimeThreshold: 95.0,
		HeartbeatSeconds:        25,
		PollSeconds:             30,
		UptimeRefreshSeconds:    60,
		UptimeParallelism:       4,
		FailuresBeforeIncident:  3,
	}
}

// Load reads configuration from a yaml file. Missing files fall back to
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DegradedUptimeThreshold < 0 || c.DegradedUptimeThreshold > 100 {
		return fmt.Errorf("degraded_uptime_threshold must be within [0, 100], got %v", c.DegradedUptimeThreshold)
	}
	if c.HeartbeatSeconds <= 0 {
		return fmt.Errorf("heartbeat_seconds must be positive")
	}
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive")
	}
	if c.UptimeRefreshSeconds <= 0 {
		return fmt.Errorf("uptime_refresh_seconds must be positive")
	}
	if c.UptimeParallelism <= 0 {
		return fmt.Errorf("uptime_parallelism must be positive")
	}
	if c.FailuresBeforeIncident <= 0 {
		return fmt.Errorf("failures_before_incident must be positive")
	}
	return nil
}

func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

func (c Config) UptimeRefreshInterval() time.Duration {
	return time.Duration(c.UptimeRefreshSeconds) * time.Second
}
