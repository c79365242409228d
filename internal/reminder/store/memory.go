package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"auszug/internal/domain"
)

// MemorySessionStore keeps sessions in memory for tests and local development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]domain.AbandonedSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]domain.AbandonedSession)}
}

func (s *MemorySessionStore) ListOpen(_ context.Context) ([]domain.AbandonedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []domain.AbandonedSession
	for _, session := range s.sessions {
		if !session.OrderCompleted {
			open = append(open, session)
		}
	}
	return open, nil
}

func (s *MemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, session := range s.sessions {
		if !session.OrderCompleted && session.Expired(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemorySessionStore) MarkReminderSent(_ context.Context, id uuid.UUID, stage domain.ReminderStage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	switch stage {
	case domain.ReminderFirst:
		session.Reminder1Sent = true
	case domain.ReminderSecond:
		session.Reminder2Sent = true
	case domain.ReminderFinal:
		session.Reminder3Sent = true
	}
	s.sessions[id] = session
	return nil
}

func (s *MemorySessionStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.OrderCompleted = true
	s.sessions[id] = session
	return nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *domain.AbandonedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// Get returns a session for test assertions.
func (s *MemorySessionStore) Get(id uuid.UUID) (domain.AbandonedSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Len reports how many sessions are stored.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
