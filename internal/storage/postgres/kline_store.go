package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// KlineStore implements storage.KlineStore using PostgreSQL. A pair with zero
// stored rows is indistinguishable from a never-persisted pair; both report
// ErrNotFound, which resumes from the default start either way.
type KlineStore struct {
	pool *Pool
}

// NewKlineStore creates a new KlineStore.
func NewKlineStore(pool *Pool) *KlineStore {
	return &KlineStore{pool: pool}
}

// Compile-time interface check.
var _ storage.KlineStore = (*KlineStore)(nil)

// Load returns every row of the dataset ordered by open time.
func (s *KlineStore) Load(ctx context.Context, symbol, interval string) ([]domain.Kline, error) {
	query := `
		SELECT open_time, open, high, low, close, volume, close_time
		FROM klines
		WHERE symbol = $1 AND bar_interval = $2
		ORDER BY open_time ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("query klines: %w", err)
	}
	defer rows.Close()

	var out []domain.Kline
	for rows.Next() {
		var k domain.Kline
		if err := rows.Scan(&k.OpenTime, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume, &k.CloseTime); err != nil {
			return nil, fmt.Errorf("scan kline: %w", err)
		}
		k.OpenTime = k.OpenTime.UTC()
		k.CloseTime = k.CloseTime.UTC()
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate klines: %w", err)
	}

	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

// Save replaces the dataset in one transaction: delete the pair's rows, then
// bulk-load the new ones.
func (s *KlineStore) Save(ctx context.Context, symbol, interval string, rows []domain.Kline) error {
	if symbol == "" || interval == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM klines WHERE symbol = $1 AND bar_interval = $2`,
		symbol, interval,
	); err != nil {
		return fmt.Errorf("delete old rows: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"klines"},
		[]string{"symbol", "bar_interval", "open_time", "open", "high", "low", "close", "volume", "close_time"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			k := rows[i]
			return []any{symbol, interval, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.CloseTime}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy klines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
