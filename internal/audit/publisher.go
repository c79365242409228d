package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Feed is an optional downstream sink for ledger entries (the reporting
// pipeline). Feed delivery is best-effort and never blocks the order.
type Feed interface {
	Publish(ctx context.Context, orderID uuid.UUID, entry Entry)
}

// Publisher appends entries to the store of record and fans them out to the
// ops feed.
type Publisher struct {
	store Store
	feed  Feed
	log   *slog.Logger
	now   func() time.Time
}

type PublisherOption func(*Publisher)

// WithFeed attaches the downstream reporting feed.
func WithFeed(feed Feed) PublisherOption {
	return func(p *Publisher) { p.feed = feed }
}

// WithClock fixes the timestamp source for tests.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(store Store, log *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit appends one entry to the order's ledger. The store write is the
// source of truth; feed publication failures are logged and dropped.
func (p *Publisher) Emit(ctx context.Context, orderID uuid.UUID, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = p.now()
	}
	if err := p.store.Append(ctx, orderID, entry); err != nil {
		return err
	}
	if p.feed != nil {
		p.feed.Publish(ctx, orderID, entry)
	}
	return nil
}

// List returns the order's ledger, oldest first.
func (p *Publisher) List(ctx context.Context, orderID uuid.UUID) ([]Entry, error) {
	return p.store.ListByOrder(ctx, orderID)
}
