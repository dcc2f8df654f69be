package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records outcomes of the settlement pipeline.
type SettlementMetrics struct {
	duration   *prometheus.HistogramVec
	settled    prometheus.Counter
	duplicates prometheus.Counter
	failures   *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_orders_settled_total",
		Help: "Orders settled exactly once.",
	})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_duplicate_deliveries_total",
		Help: "Capture events dropped by the idempotency gate.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total",
		Help: "Settlement attempts that aborted.",
	}, []string{"reason"})
	reg.MustRegister(duration, settled, duplicates, failures)
	return &SettlementMetrics{
		duration:   duration,
		settled:    settled,
		duplicates: duplicates,
		failures:   failures,
	}
}

// ObserveDuration records how long a settlement attempt took.
func (m *SettlementMetrics) ObserveDuration(outcome string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

// IncSettled increments the settled order counter.
func (m *SettlementMetrics) IncSettled() {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.Inc()
}

// IncDuplicate increments the duplicate delivery counter.
func (m *SettlementMetrics) IncDuplicate() {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.Inc()
}

// IncFailure increments the failure counter for the given reason.
func (m *SettlementMetrics) IncFailure(reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
