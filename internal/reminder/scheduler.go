// Package reminder nudges abandoned checkouts back to completion. Three
// time-windowed reminders per session, each sent at most once, then the
// session expires and is deleted.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"auszug/internal/domain"
	"auszug/internal/reminder/metrics"
	"auszug/internal/reminder/store"
)

// Sender delivers one reminder mail for a session.
type Sender interface {
	SendReminder(ctx context.Context, session *domain.AbandonedSession, stage domain.ReminderStage) error
}

// RunStats summarizes one scheduler pass.
type RunStats struct {
	Deleted int
	Sent    int
	Failed  int
}

// Scheduler applies the reminder windows to open sessions. It does not
// schedule itself; an external trigger (ticker in main, cron) calls RunOnce.
type Scheduler struct {
	sessions store.SessionStore
	sender   Sender
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Scheduler)

// WithClock fixes the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithMetrics attaches the Prometheus metrics. Nil-safe in the scheduler.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func NewScheduler(sessions store.SessionStore, sender Sender, log *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{sessions: sessions, sender: sender, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce performs one pass: purge expired sessions, then send at most one
// reminder per remaining session. A send failure is isolated to its session
// and never aborts the batch; the flag is only written after a successful
// send, so delivery is at-most-once per flag across runs (a crash between
// send and flag write may duplicate one reminder, which is accepted).
func (s *Scheduler) RunOnce(ctx context.Context) (RunStats, error) {
	var stats RunStats
	now := s.now()

	deleted, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return stats, err
	}
	stats.Deleted = deleted
	s.metrics.RecordDeleted(deleted)

	open, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return stats, err
	}

	for i := range open {
		session := &open[i]
		stage := session.DueStage(now)
		if stage == domain.ReminderNone {
			continue
		}

		if err := s.sender.SendReminder(ctx, session, stage); err != nil {
			stats.Failed++
			s.metrics.RecordFailure()
			s.log.Warn("reminder send failed",
				"session_id", session.ID, "stage", int(stage), "error", err)
			continue
		}
		if err := s.sessions.MarkReminderSent(ctx, session.ID, stage); err != nil {
			stats.Failed++
			s.metrics.RecordFailure()
			s.log.Error("reminder flag write failed after send",
				"session_id", session.ID, "stage", int(stage), "error", err)
			continue
		}
		stats.Sent++
		s.metrics.RecordSent(int(stage))
	}

	s.log.Info("reminder pass complete",
		"deleted", stats.Deleted, "sent", stats.Sent, "failed", stats.Failed)
	return stats, nil
}

// Run calls RunOnce on a fixed interval until the context ends.
func (s *Scheduler) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("reminder pass failed", "error", err)
			}
		}
	}
}
