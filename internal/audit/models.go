// Package audit is the append-only ledger attached to each order. Reporting
// reads the structured entries directly; the legacy text block the admin UI
// shows is rendered from them, never parsed back.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a ledger entry.
type Kind string

const (
	// KindFetch records a successful extract retrieval.
	KindFetch Kind = "fetch"

	// KindCost records the gross amount billed for one upstream call.
	KindCost Kind = "cost"

	// KindFailure records a pipeline failure an operator must act on.
	KindFailure Kind = "failure"

	// KindStatus records an order status transition.
	KindStatus Kind = "status"

	// KindNotify records the outcome of a customer or ops notification.
	KindNotify Kind = "notify"
)

// Entry is one ledger line. AmountCents is only meaningful for cost entries;
// it is the gross amount including tax, in euro cents.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        Kind      `json:"kind"`
	Message     string    `json:"message"`
	AmountCents int64     `json:"amount_cents,omitempty"`
}

// Store persists ledger entries per order. Append-only by contract.
type Store interface {
	Append(ctx context.Context, orderID uuid.UUID, entries ...Entry) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Entry, error)
}

// TotalCents sums the cost entries. This replaces the old practice of
// re-parsing amounts out of note text.
func TotalCents(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		if e.Kind == KindCost {
			total += e.AmountCents
		}
	}
	return total
}
