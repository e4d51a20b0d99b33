// Package memory provides in-memory store implementations for tests and
// fast local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// KlineStore is an in-memory implementation of storage.KlineStore.
type KlineStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Kline // keyed by (symbol, interval)
}

// NewKlineStore creates a new in-memory kline store.
func NewKlineStore() *KlineStore {
	return &KlineStore{
		data: make(map[string][]domain.Kline),
	}
}

// Compile-time interface check.
var _ storage.KlineStore = (*KlineStore)(nil)

func pairKey(symbol, interval string) string {
	return fmt.Sprintf("%s|%s", symbol, interval)
}

// Load returns every row of the dataset, or ErrNotFound.
func (s *KlineStore) Load(_ context.Context, symbol, interval string) ([]domain.Kline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.data[pairKey(symbol, interval)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := make([]domain.Kline, len(rows))
	copy(out, rows)
	return out, nil
}

// Save replaces the dataset with the given rows.
func (s *KlineStore) Save(_ context.Context, symbol, interval string, rows []domain.Kline) error {
	if symbol == "" || interval == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.Kline, len(rows))
	copy(stored, rows)
	s.data[pairKey(symbol, interval)] = stored
	return nil
}
