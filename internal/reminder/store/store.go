// Package store persists abandoned checkout sessions.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"auszug/internal/domain"
	dErrors "auszug/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "session not found")

// SessionStore is the scheduler's view of session persistence.
type SessionStore interface {
	// ListOpen returns all sessions that have not completed into an order.
	ListOpen(ctx context.Context) ([]domain.AbandonedSession, error)

	// DeleteExpired removes sessions past their retention horizon that never
	// completed, returning how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// MarkReminderSent flips one reminder flag. Flags only ever go false to
	// true; the write happens after a successful send.
	MarkReminderSent(ctx context.Context, id uuid.UUID, stage domain.ReminderStage) error

	// MarkCompleted records that the session's order completed. Monotonic.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// Save inserts or updates a session. The checkout collaborator creates
	// sessions on first contact-field input.
	Save(ctx context.Context, session *domain.AbandonedSession) error
}
