package ingestion

import (
	"fmt"
	"strconv"
	"time"

	"binance-data-lab/internal/binance"
)

// Minute multipliers for the supported interval units.
var intervalUnitMinutes = map[byte]int64{
	'm': 1,
	'h': 60,
	'd': 24 * 60,
	'w': 7 * 24 * 60,
	'M': 30 * 24 * 60,
}

// IntervalDuration parses an exchange interval string ("1m", "4h", "1d", "1w",
// "1M") into the duration of a single bar.
func IntervalDuration(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	unit := interval[len(interval)-1]
	minutes, ok := intervalUnitMinutes[unit]
	if !ok {
		return 0, fmt.Errorf("invalid interval %q: unknown unit %q", interval, string(unit))
	}

	n, err := strconv.ParseInt(interval[:len(interval)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval %q: bad multiplier", interval)
	}

	return time.Duration(n*minutes) * time.Minute, nil
}

// Window is a half-open [StartMs, EndMs) request range in epoch milliseconds.
// Consecutive windows share the boundary: one window's end is the next one's
// start.
type Window struct {
	StartMs int64
	EndMs   int64
}

// PlanWindows splits [startMs, endMs] into contiguous ascending windows, each
// spanning at most the per-request row cap worth of bars. The final window may
// overshoot endMs; the extra rows are handled by sort/dedupe downstream, not
// trimmed here. Both bounds are required.
func PlanWindows(startMs, endMs int64, bar time.Duration) ([]Window, error) {
	if startMs <= 0 || endMs <= 0 {
		return nil, fmt.Errorf("plan windows: both bounds required (got %d, %d)", startMs, endMs)
	}
	if endMs < startMs {
		return nil, fmt.Errorf("plan windows: end %d before start %d", endMs, startMs)
	}

	span := int64(binance.MaxKlinesPerRequest) * bar.Milliseconds()
	if span <= 0 {
		return nil, fmt.Errorf("plan windows: non-positive bar duration %v", bar)
	}

	windows := []Window{{StartMs: startMs, EndMs: startMs + span}}
	for windows[len(windows)-1].EndMs <= endMs {
		last := windows[len(windows)-1].EndMs
		windows = append(windows, Window{StartMs: last, EndMs: last + span})
	}
	return windows, nil
}
