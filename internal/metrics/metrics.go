// Package metrics exposes the Prometheus collectors for the query
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// hrchat_turns_total: turns accepted into the pipeline, after
	// message validation.
	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrchat_turns_total",
		Help: "Total number of query turns received",
	})

	// hrchat_outcome_count{outcome=answer|access_denied|no_data|clarification|error}
	OutcomeCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrchat_outcome_count",
		Help: "Pipeline outcomes by response type",
	}, []string{"outcome"})

	// hrchat_intent_count{intent=leave_balance|...}
	IntentCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrchat_intent_count",
		Help: "Classified intents per turn",
	}, []string{"intent"})

	// hrchat_turn_seconds: end-to-end pipeline latency.
	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hrchat_turn_seconds",
		Help:    "Turn processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// hrchat_redaction_count{pattern=monetary_amount|...}
	RedactionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrchat_redaction_count",
		Help: "Response filter redactions by pattern name",
	}, []string{"pattern"})
)

// RecordOutcome increments the outcome counter.
func RecordOutcome(outcome string) {
	OutcomeCount.WithLabelValues(outcome).Inc()
}

// RecordIntent increments the intent counter.
func RecordIntent(tag string) {
	IntentCount.WithLabelValues(tag).Inc()
}

// RecordRedaction increments the redaction counter for each fired
// pattern.
func RecordRedaction(patterns []string) {
	for _, name := range patterns {
		RedactionCount.WithLabelValues(name).Inc()
	}
}
