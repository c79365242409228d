package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps ledger entries in memory. Used by tests and as the
// fallback when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, orderID uuid.UUID, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[orderID] = append(s.entries[orderID], entries...)
	return nil
}

func (s *MemoryStore) ListByOrder(_ context.Context, orderID uuid.UUID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[orderID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}
