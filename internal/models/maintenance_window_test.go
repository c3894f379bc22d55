package models

import (
	"testing"
	"time"
)

func TestMaintenanceWindowLifecycleStatus(t *testing.T) {
	start := time.Date(2025, time.March, 10, 2, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	window := MaintenanceWindow{StartsAt: start, EndsAt: end}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before start", start.Add(-time.Minute), "scheduled"},
		{"at start", start, "active"},
		{"mid window", start.Add(time.Hour), "active"},
		{"at end", end, "completed"},
		{"after end", end.Add(time.Minute), "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := window.LifecycleStatus(tt.now); got != tt.want {
				t.Errorf("LifecycleStatus(%v) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}
