package memory

import (
	"context"
	"sync"

	"binance-data-lab/internal/domain"
	"binance-data-lab/internal/storage"
)

// SymbolStore is an in-memory implementation of storage.SymbolStore.
type SymbolStore struct {
	mu      sync.RWMutex
	ranking []domain.Symbol
	saved   bool
}

// NewSymbolStore creates a new in-memory symbol store.
func NewSymbolStore() *SymbolStore {
	return &SymbolStore{}
}

// Compile-time interface check.
var _ storage.SymbolStore = (*SymbolStore)(nil)

// SaveRanking replaces the stored ranking.
func (s *SymbolStore) SaveRanking(_ context.Context, symbols []domain.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ranking = make([]domain.Symbol, len(symbols))
	copy(s.ranking, symbols)
	s.saved = true
	return nil
}

// LoadRanking returns the stored ranking, or ErrNotFound before the first save.
func (s *SymbolStore) LoadRanking(_ context.Context) ([]domain.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return nil, storage.ErrNotFound
	}

	out := make([]domain.Symbol, len(s.ranking))
	copy(out, s.ranking)
	return out, nil
}
