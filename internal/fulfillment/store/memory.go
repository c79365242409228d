package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"auszug/internal/domain"
)

// MemoryOrderStore keeps orders in memory for tests and local development.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]domain.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[uuid.UUID]domain.Order)}
}

func (s *MemoryOrderStore) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := order
	copied.Documents = append([]domain.StoredArtifact(nil), order.Documents...)
	return &copied, nil
}

func (s *MemoryOrderStore) Save(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	copied.Documents = append([]domain.StoredArtifact(nil), order.Documents...)
	s.orders[order.ID] = copied
	return nil
}
