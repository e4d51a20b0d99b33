package ingestion

import (
	"testing"
	"time"
)

func TestIntervalDuration(t *testing.T) {
	tests := []struct {
		interval string
		want     time.Duration
	}{
		{"1m", time.Minute},
		{"15m", 15 * time.Minute},
		{"4h", 240 * time.Minute},
		{"1d", 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"1M", 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		got, err := IntervalDuration(tt.interval)
		if err != nil {
			t.Errorf("IntervalDuration(%q): %v", tt.interval, err)
			continue
		}
		if got != tt.want {
			t.Errorf("IntervalDuration(%q) = %v, want %v", tt.interval, got, tt.want)
		}
	}
}

func TestIntervalDuration_Malformed(t *testing.T) {
	for _, interval := range []string{"", "m", "1x", "x1", "1s", "-1m", "0h", "1.5h"} {
		if _, err := IntervalDuration(interval); err == nil {
			t.Errorf("IntervalDuration(%q): expected error", interval)
		}
	}
}

func TestPlanWindows_Coverage(t *testing.T) {
	const barMs = 60_000 // 1m
	start := int64(1_609_459_200_000)
	end := start + 3_500*barMs // 3.5 window spans

	windows, err := PlanWindows(start, end, time.Minute)
	if err != nil {
		t.Fatalf("PlanWindows: %v", err)
	}

	if len(windows) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(windows))
	}

	span := int64(1000) * barMs
	for i, w := range windows {
		if w.EndMs-w.StartMs != span {
			t.Errorf("window %d spans %d ms, want %d", i, w.EndMs-w.StartMs, span)
		}
		if i > 0 && w.StartMs != windows[i-1].EndMs {
			t.Errorf("window %d not contiguous: start %d, previous end %d", i, w.StartMs, windows[i-1].EndMs)
		}
	}

	if windows[0].StartMs != start {
		t.Errorf("first window starts at %d, want %d", windows[0].StartMs, start)
	}
	last := windows[len(windows)-1]
	if last.EndMs <= end {
		t.Errorf("last window end %d does not cover end %d", last.EndMs, end)
	}
}

func TestPlanWindows_FourHourInterval(t *testing.T) {
	bar, err := IntervalDuration("4h")
	if err != nil {
		t.Fatalf("IntervalDuration: %v", err)
	}

	start := int64(1_609_459_200_000)
	windows, err := PlanWindows(start, start+1, bar)
	if err != nil {
		t.Fatalf("PlanWindows: %v", err)
	}

	// Each window spans 1000 bars of 240 minutes.
	wantSpan := int64(1000) * 240 * 60 * 1000
	if got := windows[0].EndMs - windows[0].StartMs; got != wantSpan {
		t.Errorf("window span %d, want %d", got, wantSpan)
	}
}

func TestPlanWindows_SingleWindow(t *testing.T) {
	start := int64(1_609_459_200_000)
	windows, err := PlanWindows(start, start+60_000, time.Minute)
	if err != nil {
		t.Fatalf("PlanWindows: %v", err)
	}
	if len(windows) != 1 {
		t.Errorf("expected 1 window for a sub-span range, got %d", len(windows))
	}
}

func TestPlanWindows_MissingBounds(t *testing.T) {
	if _, err := PlanWindows(1_609_459_200_000, 0, time.Minute); err == nil {
		t.Error("expected error for missing end bound")
	}
	if _, err := PlanWindows(0, 1_609_459_200_000, time.Minute); err == nil {
		t.Error("expected error for missing start bound")
	}
	if _, err := PlanWindows(2, 1, time.Minute); err == nil {
		t.Error("expected error for inverted bounds")
	}
}
