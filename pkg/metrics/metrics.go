// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	SuggestionsTotal   *prometheus.CounterVec
	SuggestionDuration prometheus.Histogram
	ValidationsTotal   *prometheus.CounterVec
	UploadsTotal       *prometheus.CounterVec
}

// New creates the collectors and registers them with the registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SuggestionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rooftag_suggestions_total",
			Help: "Roof color suggestions requested, by provider and outcome.",
		}, []string{"provider", "outcome"}),

		SuggestionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rooftag_suggestion_duration_seconds",
			Help:    "End-to-end latency of inference calls.",
			Buckets: prometheus.DefBuckets,
		}),

		ValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rooftag_validations_total",
			Help: "Validated building records created, by validation method.",
		}, []string{"method"}),

		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rooftag_uploads_total",
			Help: "Upload attempts for pending records, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.SuggestionsTotal,
		m.SuggestionDuration,
		m.ValidationsTotal,
		m.UploadsTotal,
	)
	return m
}

// NewNop returns metrics backed by a private registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
