package clickhouse

import (
	"context"
	"fmt"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// SymbolStore implements storage.SymbolStore using ClickHouse.
type SymbolStore struct {
	conn *Conn
}

// NewSymbolStore creates a new SymbolStore.
func NewSymbolStore(conn *Conn) *SymbolStore {
	return &SymbolStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SymbolStore = (*SymbolStore)(nil)

// SaveRanking truncates the ranking table and inserts the new ranking as one
// batch.
func (s *SymbolStore) SaveRanking(ctx context.Context, symbols []domain.Symbol) error {
	if err := s.conn.Exec(ctx, `TRUNCATE TABLE symbol_ranking`); err != nil {
		return fmt.Errorf("truncate ranking: %w", err)
	}
	if len(symbols) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO symbol_ranking (
			symbol, base_asset, quote_asset, weighted_avg_price, volume, liquidity
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sym := range symbols {
		err = batch.Append(sym.Symbol, sym.BaseAsset, sym.QuoteAsset,
			sym.WeightedAvgPrice, sym.Volume, sym.Liquidity)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
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

	rows, err := s.conn.Query(ctx, query)
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
