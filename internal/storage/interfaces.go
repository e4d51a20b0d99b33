// Package storage defines the persistence contracts for kline datasets and
// the discovered symbol ranking.
package storage

import (
	"context"

	"binance-data-lab/internal/domain"
)

// KlineStore persists one dataset per (symbol, interval) pair. Datasets are
// read whole and rewritten whole; rows are kept sorted ascending by open time
// with no duplicate open times.
type KlineStore interface {
	// Load returns every row of the dataset. Returns ErrNotFound when the
	// pair has never been persisted.
	Load(ctx context.Context, symbol, interval string) ([]domain.Kline, error)

	// Save replaces the dataset with the given rows. The caller hands over
	// sorted, deduplicated rows.
	Save(ctx context.Context, symbol, interval string, rows []domain.Kline) error
}

// SymbolStore persists the discovered symbol/liquidity ranking.
type SymbolStore interface {
	// SaveRanking replaces the stored ranking.
	SaveRanking(ctx context.Context, symbols []domain.Symbol) error

	// LoadRanking returns the stored ranking ordered by liquidity descending.
	// Returns ErrNotFound when no discovery has been persisted.
	LoadRanking(ctx context.Context) ([]domain.Symbol, error)
}
