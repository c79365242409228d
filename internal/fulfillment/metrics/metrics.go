package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the fulfillment pipeline.
type Metrics struct {
	OrdersProcessed   prometheus.Counter
	Failures          *prometheus.CounterVec
	ExtractCalls      prometheus.Counter
	UpstreamCostCents prometheus.Counter
}

// New creates and registers all fulfillment metrics.
func New() *Metrics {
	return &Metrics{
		OrdersProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auszug_orders_processed_total",
			Help: "Orders that reached the processed status",
		}),
		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auszug_fulfillment_failures_total",
			Help: "Pipeline failures by stage",
		}, []string{"stage"}),
		ExtractCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auszug_extract_calls_total",
			Help: "Billable extract calls issued upstream",
		}),
		UpstreamCostCents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auszug_upstream_cost_cents_total",
			Help: "Gross upstream cost in euro cents",
		}),
	}
}

// RecordProcessed increments the processed-orders counter.
func (m *Metrics) RecordProcessed() {
	if m == nil {
		return
	}
	m.OrdersProcessed.Inc()
}

// RecordFailure counts one pipeline failure at the given stage.
func (m *Metrics) RecordFailure(stage string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(stage).Inc()
}

// RecordExtract counts one billed extract call and its cost.
func (m *Metrics) RecordExtract(costCents int64) {
	if m == nil {
		return
	}
	m.ExtractCalls.Inc()
	m.UpstreamCostCents.Add(float64(costCents))
}
