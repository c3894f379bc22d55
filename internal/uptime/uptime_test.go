package uptime

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// sampleEvery builds one sample per interval going back from now, all with
// the given result.
func sampleEvery(n int, interval time.Duration, up bool) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, Sample{
			CheckedAt: testNow.Add(-time.Duration(i)*interval - time.Second),
			Up:        up,
		})
	}
	return samples
}

func TestPercentageNoSamples(t *testing.T) {
	if got := Percentage(nil, Window24h, time.Minute, testNow); got != nil {
		t.Errorf("Percentage(nil) = %v, want nil", *got)
	}
}

func TestPercentageAllUp(t *testing.T) {
	samples := sampleEvery(60, time.Minute, true)

	got := Percentage(samples, Window24h, time.Minute, testNow)
	if got == nil || *got != 100.0 {
		t.Errorf("Percentage = %v, want 100.0", got)
	}
}

func TestPercentageHalfDown(t *testing.T) {
	samples := []Sample{
		{CheckedAt: testNow.Add(-1 * time.Minute), Up: true},
		{CheckedAt: testNow.Add(-3 * time.Minute), Up: false},
	}

	got := Percentage(samples, Window24h, time.Minute, testNow)
	if got == nil || *got != 50.0 {
		t.Errorf("Percentage = %v, want 50.0", got)
	}
}

func TestPercentageRounding(t *testing.T) {
	// 2 of 3 slots up: 66.666... rounds to 66.7.
	samples := []Sample{
		{CheckedAt: testNow.Add(-1 * time.Minute), Up: true},
		{CheckedAt: testNow.Add(-3 * time.Minute), Up: true},
		{CheckedAt: testNow.Add(-5 * time.Minute), Up: false},
	}

	got := Percentage(samples, Window24h, time.Minute, testNow)
	if got == nil || *got != 66.7 {
		t.Errorf("Percentage = %v, want 66.7", got)
	}
}

func TestPercentageMonotoneUnderDownSamples(t *testing.T) {
	samples := sampleEvery(20, time.Minute, true)

	prev := 101.0
	for i := 0; i < 10; i++ {
		samples = append(samples, Sample{
			CheckedAt: testNow.Add(-time.Duration(30+i)*time.Minute - time.Second),
			Up:        false,
		})

		got := Percentage(samples, Window24h, time.Minute, testNow)
		if got == nil {
			t.Fatal("Percentage = nil with observed samples")
		}
		if *got > prev {
			t.Errorf("adding a down sample raised availability: %v -> %v", prev, *got)
		}
		prev = *got
	}
}

func TestPercentageIgnoresSamplesOutsideWindow(t *testing.T) {
	samples := []Sample{
		{CheckedAt: testNow.Add(-time.Minute), Up: true},
		// Before the window: must not count.
		{CheckedAt: testNow.Add(-25 * time.Hour), Up: false},
		// After now: must not count either.
		{CheckedAt: testNow.Add(time.Hour), Up: false},
	}

	got := Percentage(samples, Window24h, time.Minute, testNow)
	if got == nil || *got != 100.0 {
		t.Errorf("Percentage = %v, want 100.0", got)
	}
}

func TestPercentageDownDominatesWithinSlot(t *testing.T) {
	// Two samples land in the same one-minute slot; the failure wins.
	samples := []Sample{
		{CheckedAt: testNow.Add(-70 * time.Second), Up: true},
		{CheckedAt: testNow.Add(-75 * time.Second), Up: false},
	}

	got := Percentage(samples, Window24h, time.Minute, testNow)
	if got == nil || *got != 0.0 {
		t.Errorf("Percentage = %v, want 0.0", got)
	}
}

func TestPercentageDefaultsInterval(t *testing.T) {
	samples := []Sample{{CheckedAt: testNow.Add(-time.Minute), Up: true}}

	got := Percentage(samples, Window24h, 0, testNow)
	if got == nil || *got != 100.0 {
		t.Errorf("Percentage with zero interval = %v, want 100.0", got)
	}
}

func TestComputeWindows(t *testing.T) {
	samples := []Sample{
		// Inside 24h: up.
		{CheckedAt: testNow.Add(-time.Hour), Up: true},
		// Between 24h and 7d: down.
		{CheckedAt: testNow.Add(-48 * time.Hour), Up: false},
		// Between 7d and 30d: down.
		{CheckedAt: testNow.Add(-10 * 24 * time.Hour), Up: false},
	}

	w := ComputeWindows(samples, time.Minute, testNow)

	if w.H24 == nil || *w.H24 != 100.0 {
		t.Errorf("H24 = %v, want 100.0", w.H24)
	}
	if w.D7 == nil || *w.D7 != 50.0 {
		t.Errorf("D7 = %v, want 50.0", w.D7)
	}
	if w.D30 == nil || *w.D30 != 33.3 {
		t.Errorf("D30 = %v, want 33.3", w.D30)
	}
}

func TestComputeWindowsEmpty(t *testing.T) {
	w := ComputeWindows(nil, time.Minute, testNow)

	if w.H24 != nil || w.D7 != nil || w.D30 != nil {
		t.Errorf("empty history produced non-nil windows: %+v", w)
	}
}
