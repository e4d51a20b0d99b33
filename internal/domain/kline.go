package domain

import "time"

// Kline is a single OHLCV bar for a (symbol, interval) pair.
// Uniquely identified by OpenTime within a pair.
type Kline struct {
	OpenTime  time.Time // bar open, UTC
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64 // base-asset volume
	CloseTime time.Time // bar close, UTC
}

// KlinesSortedByOpenTime reports whether rows are strictly ascending by OpenTime.
func KlinesSortedByOpenTime(rows []Kline) bool {
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].OpenTime.Before(rows[i].OpenTime) {
			return false
		}
	}
	return true
}
