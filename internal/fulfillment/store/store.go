// Package store persists orders. Interface-driven so the memory and
// PostgreSQL implementations stay interchangeable in tests and wiring.
package store

import (
	"context"

	"github.com/google/uuid"

	"auszug/internal/domain"
	dErrors "auszug/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "order not found")

// OrderStore is the pipeline's view of order persistence. The backing store
// uses last-write-wins row semantics on the fields the pipeline touches;
// concurrent runs on one order are prevented by the fulfillment claim, not
// by optimistic locking here.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) error
}
