package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionRetention is how long an abandoned checkout is kept before the
// scheduler deletes it.
const SessionRetention = 72 * time.Hour

// ReminderStage identifies which of the three reminder windows fired.
type ReminderStage int

const (
	ReminderNone ReminderStage = iota
	ReminderFirst
	ReminderSecond
	ReminderFinal
)

// Reminder window thresholds, checked in descending order so a session that
// slept through earlier windows only receives the latest reminder.
const (
	ReminderFirstAfter  = 1 * time.Hour
	ReminderSecondAfter = 25 * time.Hour
	ReminderFinalAfter  = 72 * time.Hour
)

// AbandonedSession is one in-progress checkout that never became an order.
// Each reminder flag transitions false to true at most once; OrderCompleted
// is monotonic and never reset.
type AbandonedSession struct {
	ID            uuid.UUID
	CustomerName  string
	CustomerEmail string

	Street       string
	HouseNumber  string
	PostalCode   string
	Town         string
	FederalState string

	ProductName  string
	ProductPrice string

	CreatedAt time.Time
	ExpiresAt time.Time

	Reminder1Sent  bool
	Reminder2Sent  bool
	Reminder3Sent  bool
	OrderCompleted bool
}

// DueStage returns the highest unmet reminder window at the given time, or
// ReminderNone. At most one stage is due per scheduler run.
func (s *AbandonedSession) DueStage(now time.Time) ReminderStage {
	elapsed := now.Sub(s.CreatedAt)
	switch {
	case elapsed >= ReminderFinalAfter && !s.Reminder3Sent:
		return ReminderFinal
	case elapsed >= ReminderSecondAfter && !s.Reminder2Sent:
		return ReminderSecond
	case elapsed >= ReminderFirstAfter && !s.Reminder1Sent:
		return ReminderFirst
	default:
		return ReminderNone
	}
}

// Expired reports whether the session passed its retention horizon.
func (s *AbandonedSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
