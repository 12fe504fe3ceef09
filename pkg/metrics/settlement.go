package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement outcome labels.
const (
	SettlementCreated       = "created"
	SettlementReplayed      = "replayed"
	SettlementRaceRecovered = "race_recovered"
	SettlementRejected      = "rejected"
)

// SettlementMetrics records settlement and fulfillment activity.
type SettlementMetrics struct {
	settlements    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	bridgeFailures prometheus.Counter
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Settlement attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_transitions_total",
		Help: "Order item status transitions by target status.",
	}, []string{"target"})
	bridgeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conversation_bridge_failures_total",
		Help: "Conversation thread creation failures (best effort, retried later).",
	})
	reg.MustRegister(settlements, duration, transitions, bridgeFailures)
	return &SettlementMetrics{
		settlements:    settlements,
		duration:       duration,
		transitions:    transitions,
		bridgeFailures: bridgeFailures,
	}
}

// ObserveSettlement records one settlement attempt.
func (m *SettlementMetrics) ObserveSettlement(outcome string, elapsed time.Duration) {
	if m == nil || m.settlements == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.settlements.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncTransition counts a fulfillment transition to the given target status.
func (m *SettlementMetrics) IncTransition(target string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(target)).Inc()
}

// IncBridgeFailure counts a failed conversation thread creation.
func (m *SettlementMetrics) IncBridgeFailure() {
	if m == nil || m.bridgeFailures == nil {
		return
	}
	m.bridgeFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
