package normalization

import (
	"testing"
	"time"

	"binance-data-lab/internal/binance"
)

func TestKlines_TypesFields(t *testing.T) {
	raw := []binance.RawKline{
		{
			OpenTimeMs: 1_609_459_200_000,
			Open:       "29000.12", High: "29100.5", Low: "28950.0",
			Close: "29050.75", Volume: "123.456",
			CloseTimeMs: 1_609_459_259_999,
		},
	}

	rows, err := Klines(raw)
	if err != nil {
		t.Fatalf("Klines: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	k := rows[0]
	wantOpen := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if !k.OpenTime.Equal(wantOpen) {
		t.Errorf("open time %v, want %v", k.OpenTime, wantOpen)
	}
	if k.Open != 29000.12 || k.High != 29100.5 || k.Low != 28950.0 || k.Close != 29050.75 {
		t.Errorf("unexpected OHLC: %+v", k)
	}
	if k.Volume != 123.456 {
		t.Errorf("volume %v, want 123.456", k.Volume)
	}
	if k.CloseTime.UnixMilli() != 1_609_459_259_999 {
		t.Errorf("close time %v", k.CloseTime)
	}
}

func TestKlines_EmptyInputIsNil(t *testing.T) {
	rows, err := Klines(nil)
	if err != nil {
		t.Fatalf("Klines(nil): %v", err)
	}
	if rows != nil {
		t.Errorf("expected nil for empty input, got %v", rows)
	}
}

func TestKlines_BadNumberFails(t *testing.T) {
	raw := []binance.RawKline{
		{OpenTimeMs: 1000, Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "1", CloseTimeMs: 2000},
	}

	if _, err := Klines(raw); err == nil {
		t.Fatal("expected error for unparseable price")
	}
}
