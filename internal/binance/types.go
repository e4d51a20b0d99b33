package binance

import (
	"encoding/json"
	"fmt"
)

// ExchangeInfo is the /exchangeInfo response.
type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// SymbolInfo is one entry of ExchangeInfo.Symbols. The endpoint returns many
// more fields (filters, permissions, precision); only the ones the collector
// joins on are decoded.
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// Ticker24h is one entry of the /ticker/24hr response. Numeric fields arrive
// as strings and stay strings until normalization.
type Ticker24h struct {
	Symbol           string `json:"symbol"`
	WeightedAvgPrice string `json:"weightedAvgPrice"`
	Volume           string `json:"volume"`
	QuoteVolume      string `json:"quoteVolume"`
}

// RawKline is one positional record from the /klines response. The source
// array carries 12 fields; only the leading open-time..close-time slice is
// retained (quote volume, trade count and the trailing ignorable fields are
// dropped on decode).
type RawKline struct {
	OpenTimeMs  int64
	Open        string
	High        string
	Low         string
	Close       string
	Volume      string
	CloseTimeMs int64
}

// klineFieldCount is the minimum array length accepted: open time through
// close time inclusive.
const klineFieldCount = 7

// UnmarshalJSON decodes the fixed-position kline array.
func (k *RawKline) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("kline record is not an array: %w", err)
	}
	if len(fields) < klineFieldCount {
		return fmt.Errorf("kline record has %d fields, want at least %d", len(fields), klineFieldCount)
	}

	if err := json.Unmarshal(fields[0], &k.OpenTimeMs); err != nil {
		return fmt.Errorf("decode open time: %w", err)
	}
	strs := []*string{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, dst := range strs {
		if err := json.Unmarshal(fields[i+1], dst); err != nil {
			return fmt.Errorf("decode kline field %d: %w", i+1, err)
		}
	}
	if err := json.Unmarshal(fields[6], &k.CloseTimeMs); err != nil {
		return fmt.Errorf("decode close time: %w", err)
	}
	return nil
}
