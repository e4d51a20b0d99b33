package postgres

import (
	"context"
	"fmt"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// SymbolStore implements storage.SymbolStore using PostgreSQL.
type SymbolStore struct {
	pool *Pool
}

// NewSymbolStore creates a new SymbolStore.
func NewSymbolStore(pool *Pool) *SymbolStore {
	return &SymbolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SymbolStore = (*SymbolStore)(nil)

// SaveRanking replaces the stored ranking in one transaction.
func (s *SymbolStore) SaveRanking(ctx context.Context, symbols []domain.Symbol) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM symbol_ranking`); err != nil {
		return fmt.Errorf("clear ranking: %w", err)
	}

	query := `
		INSERT INTO symbol_ranking (
			symbol, base_asset, quote_asset, weighted_avg_price, volume, liquidity
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, sym := range symbols {
		if _, err := tx.Exec(ctx, query,
			sym.Symbol, sym.BaseAsset, sym.QuoteAsset,
			sym.WeightedAvgPrice, sym.Volume, sym.Liquidity,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadRanking returns the stored ranking ordered by liquidity descending.
func (s *SymbolStore) LoadRanking(ctx context.Context) ([]domain.Symbol, error) {
	query := `
		SELECT symbol, base_asset, quote_asset, weighted_avg_price, volume, liquidity
		FROM symbol_ranking
		ORDER BY liquidity DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ranking: %w", err)
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		var sym domain.Symbol
		if err := rows.Scan(&sym.Symbol, &sym.BaseAsset, &sym.QuoteAsset,
			&sym.WeightedAvgPrice, &sym.Volume, &sym.Liquidity); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking: %w", err)
	}

	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}
