// Package metrics exposes Prometheus metrics for the reminder scheduler.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the reminder scheduler.
type Metrics struct {
	RemindersSent   *prometheus.CounterVec
	SendFailures    prometheus.Counter
	SessionsDeleted prometheus.Counter
}

// New creates and registers all reminder metrics.
func New() *Metrics {
	return &Metrics{
		RemindersSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auszug_reminders_sent_total",
			Help: "Reminder mails sent, by stage",
		}, []string{"stage"}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auszug_reminder_failures_total",
			Help: "Reminder sends or flag writes that failed",
		}),
		SessionsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auszug_sessions_deleted_total",
			Help: "Expired abandoned sessions purged",
		}),
	}
}

// RecordSent counts one delivered reminder for the given stage.
func (m *Metrics) RecordSent(stage int) {
	if m == nil {
		return
	}
	m.RemindersSent.WithLabelValues(strconv.Itoa(stage)).Inc()
}

// RecordFailure counts one failed reminder.
func (m *Metrics) RecordFailure() {
	if m == nil {
		return
	}
	m.SendFailures.Inc()
}

// RecordDeleted counts purged sessions.
func (m *Metrics) RecordDeleted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SessionsDeleted.Add(float64(n))
}
