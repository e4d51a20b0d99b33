// Package normalization converts raw exchange payloads into canonical typed
// rows.
package normalization

import (
	"fmt"
	"strconv"
	"time"

	"binance-data-lab/internal/binance"
	"binance-data-lab/internal/domain"
)

// Klines converts raw positional records into typed rows. Timestamps arrive
// as epoch milliseconds, prices and volume as strings. An empty input yields
// nil: "nothing fetched" is a distinct outcome the caller must short-circuit
// on, not an empty table.
func Klines(raw []binance.RawKline) ([]domain.Kline, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	rows := make([]domain.Kline, len(raw))
	for i, r := range raw {
		k, err := kline(r)
		if err != nil {
			return nil, fmt.Errorf("kline record %d: %w", i, err)
		}
		rows[i] = k
	}
	return rows, nil
}

func kline(r binance.RawKline) (domain.Kline, error) {
	k := domain.Kline{
		OpenTime:  time.UnixMilli(r.OpenTimeMs).UTC(),
		CloseTime: time.UnixMilli(r.CloseTimeMs).UTC(),
	}

	var err error
	if k.Open, err = parseFloat("open", r.Open); err != nil {
		return k, err
	}
	if k.High, err = parseFloat("high", r.High); err != nil {
		return k, err
	}
	if k.Low, err = parseFloat("low", r.Low); err != nil {
		return k, err
	}
	if k.Close, err = parseFloat("close", r.Close); err != nil {
		return k, err
	}
	if k.Volume, err = parseFloat("volume", r.Volume); err != nil {
		return k, err
	}
	return k, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
