// Package parquet persists datasets as parquet files under a root directory:
// one file per (symbol, interval) pair plus the symbol ranking at the root.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// datasetsDir holds the per-pair kline files below the store root.
const datasetsDir = "datasets"

// rankingFile is the symbol ranking file at the store root.
const rankingFile = "exchange.parquet"

// klineRow is the on-disk schema. Timestamps are stored as epoch milliseconds.
type klineRow struct {
	OpenTimeMs  int64   `parquet:"open_time"`
	Open        float64 `parquet:"open"`
	High        float64 `parquet:"high"`
	Low         float64 `parquet:"low"`
	Close       float64 `parquet:"close"`
	Volume      float64 `parquet:"volume"`
	CloseTimeMs int64   `parquet:"close_time"`
}

// symbolRow is the on-disk schema of the ranking file.
type symbolRow struct {
	Symbol           string  `parquet:"symbol"`
	BaseAsset        string  `parquet:"base_asset"`
	QuoteAsset       string  `parquet:"quote_asset"`
	WeightedAvgPrice float64 `parquet:"weighted_avg_price"`
	Volume           float64 `parquet:"volume"`
	Liquidity        float64 `parquet:"liquidity"`
}

// Store implements storage.KlineStore and storage.SymbolStore on parquet
// files.
type Store struct {
	root string
}

// NewStore creates a parquet store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Compile-time interface checks.
var (
	_ storage.KlineStore  = (*Store)(nil)
	_ storage.SymbolStore = (*Store)(nil)
)

// DatasetPath returns the file a (symbol, interval) dataset lives in.
func (s *Store) DatasetPath(symbol, interval string) string {
	return filepath.Join(s.root, datasetsDir, fmt.Sprintf("%s_%s.parquet", symbol, interval))
}

// RankingPath returns the symbol ranking file.
func (s *Store) RankingPath() string {
	return filepath.Join(s.root, rankingFile)
}

// Load reads the whole dataset for a pair. Returns storage.ErrNotFound when
// the file does not exist.
func (s *Store) Load(_ context.Context, symbol, interval string) ([]domain.Kline, error) {
	path := s.DatasetPath(symbol, interval)

	fileRows, err := parquet.ReadFile[klineRow](path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	rows := make([]domain.Kline, len(fileRows))
	for i, r := range fileRows {
		rows[i] = domain.Kline{
			OpenTime:  time.UnixMilli(r.OpenTimeMs).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			CloseTime: time.UnixMilli(r.CloseTimeMs).UTC(),
		}
	}
	return rows, nil
}

// Save rewrites the dataset for a pair. The file is written to a temporary
// sibling and renamed into place so a crash never leaves a half-written
// dataset behind.
func (s *Store) Save(_ context.Context, symbol, interval string, rows []domain.Kline) error {
	if symbol == "" || interval == "" {
		return storage.ErrInvalidInput
	}

	fileRows := make([]klineRow, len(rows))
	for i, k := range rows {
		fileRows[i] = klineRow{
			OpenTimeMs:  k.OpenTime.UnixMilli(),
			Open:        k.Open,
			High:        k.High,
			Low:         k.Low,
			Close:       k.Close,
			Volume:      k.Volume,
			CloseTimeMs: k.CloseTime.UnixMilli(),
		}
	}

	return writeAtomic(s.DatasetPath(symbol, interval), fileRows)
}

// SaveRanking rewrites the symbol ranking file.
func (s *Store) SaveRanking(_ context.Context, symbols []domain.Symbol) error {
	fileRows := make([]symbolRow, len(symbols))
	for i, sym := range symbols {
		fileRows[i] = symbolRow{
			Symbol:           sym.Symbol,
			BaseAsset:        sym.BaseAsset,
			QuoteAsset:       sym.QuoteAsset,
			WeightedAvgPrice: sym.WeightedAvgPrice,
			Volume:           sym.Volume,
			Liquidity:        sym.Liquidity,
		}
	}

	return writeAtomic(s.RankingPath(), fileRows)
}

// LoadRanking reads the symbol ranking file.
func (s *Store) LoadRanking(_ context.Context) ([]domain.Symbol, error) {
	path := s.RankingPath()

	fileRows, err := parquet.ReadFile[symbolRow](path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	symbols := make([]domain.Symbol, len(fileRows))
	for i, r := range fileRows {
		symbols[i] = domain.Symbol{
			Symbol:           r.Symbol,
			BaseAsset:        r.BaseAsset,
			QuoteAsset:       r.QuoteAsset,
			WeightedAvgPrice: r.WeightedAvgPrice,
			Volume:           r.Volume,
			Liquidity:        r.Liquidity,
		}
	}
	return symbols, nil
}

// writeAtomic writes rows to a temp file in the target directory and renames
// it over the destination.
func writeAtomic[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := parquet.WriteFile(tmpPath, rows); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
