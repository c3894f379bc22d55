package uptime

import (
	"math"
	"time"
)

// Sample is one observed check result for a monitor.
type Sample struct {
	CheckedAt time.Time
	Up        bool
}

// Window presets exposed by the API.
const (
	Window24h = 24 * time.Hour
	Window7d  = 7 * 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
)

// Windows carries the availability percentages for the three standard
// windows. A nil entry means no checks were observed in that window, which
// is distinct from 0%.
type Windows struct {
	H24 *float64 `json:"uptime_24h"`
	D7  *float64 `json:"uptime_7d"`
	D30 *float64 `json:"uptime_30d"`
}

// Percentage computes the availability for the given window ending at now.
//
// The window is partitioned into slots of the monitor's check interval.
// A slot with no sample is excluded from the denominator entirely; it never
// counts as up. A slot counts as down if any sample in it failed. The result
// is rounded to one decimal place, or nil when no slot was observed.
func Percentage(samples []Sample, window, interval time.Duration, now time.Time) *float64 {
	if interval <= 0 {
		interval = time.Minute
	}

	cutoff := now.Add(-window)

	type slotState struct {
		observed bool
		up       bool
	}

	slots := make(map[int64]*slotState)

	for _, s := range samples {
		if s.CheckedAt.Before(cutoff) || s.CheckedAt.After(now) {
			continue
		}

		idx := int64(now.Sub(s.CheckedAt) / interval)

		state, ok := slots[idx]
		if !ok {
			state = &slotState{up: true}
			slots[idx] = state
		}

		state.observed = true
		if !s.Up {
			state.up = false
		}
	}

	var observed, up int

	for _, state := range slots {
		if !state.observed {
			continue
		}
		observed++
		if state.up {
			up++
		}
	}

	if observed == 0 {
		return nil
	}

	pct := math.Round(float64(up)/float64(observed)*1000) / 10
	return &pct
}

// ComputeWindows evaluates all three standard windows over one history slice.
func ComputeWindows(samples []Sample, interval time.Duration, now time.Time) Windows {
	return Windows{
		H24: Percentage(samples, Window24h, interval, now),
		D7:  Percentage(samples, Window7d, interval, now),
		D30: Percentage(samples, Window30d, interval, now),
	}
}
