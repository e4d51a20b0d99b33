package clickhouse

import (
	"context"
	"fmt"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// KlineStore implements storage.KlineStore using ClickHouse. Saves are
// insert-only: the klines table is a ReplacingMergeTree keyed by
// (symbol, bar_interval, open_time), so re-inserting the merged dataset
// collapses to a replacement. Reads go through FINAL to fold rows the
// background merge has not collapsed yet.
type KlineStore struct {
	conn *Conn
}

// NewKlineStore creates a new KlineStore.
func NewKlineStore(conn *Conn) *KlineStore {
	return &KlineStore{conn: conn}
}

// Compile-time interface check.
var _ storage.KlineStore = (*KlineStore)(nil)

// Load returns every row of the dataset ordered by open time.
func (s *KlineStore) Load(ctx context.Context, symbol, interval string) ([]domain.Kline, error) {
	query := `
		SELECT open_time, open, high, low, close, volume, close_time
		FROM klines FINAL
		WHERE symbol = ? AND bar_interval = ?
		ORDER BY open_time ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, interval)
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

// Save inserts the dataset as one batch.
func (s *KlineStore) Save(ctx context.Context, symbol, interval string, rows []domain.Kline) error {
	if symbol == "" || interval == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO klines (
			symbol, bar_interval, open_time, open, high, low, close, volume, close_time
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, k := range rows {
		err = batch.Append(symbol, interval, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.CloseTime)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
