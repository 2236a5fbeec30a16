// Package metrics provides Prometheus metrics for proving and verification.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
)

type Metrics struct {
	ProofsTotal          *prometheus.CounterVec   // by variant and outcome
	ProveDurationSeconds *prometheus.HistogramVec // by variant, successful proofs only
	ProversInFlight      prometheus.Gauge
	VerificationsTotal   *prometheus.CounterVec // by variant and outcome
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ProofsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zkvc_proofs_total",
			Help: "Proving runs by variant and outcome",
		}, []string{"variant", "outcome"}),

		ProveDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zkvc_prove_duration_seconds",
			Help:    "Duration of successful proving runs",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"variant"}),

		ProversInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "zkvc_provers_in_flight",
			Help: "Proofs currently being computed, including abandoned ones",
		}),

		VerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zkvc_verifications_total",
			Help: "Receipt verifications by variant and outcome",
		}, []string{"variant", "outcome"}),
	}
}

// RecordProof counts one proving run. Durations are kept for successes only.
func (m *Metrics) RecordProof(variant, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ProofsTotal.WithLabelValues(variant, outcome).Inc()
	if outcome == OutcomeOK {
		m.ProveDurationSeconds.WithLabelValues(variant).Observe(seconds)
	}
}

func (m *Metrics) ProverStarted() {
	if m != nil {
		m.ProversInFlight.Inc()
	}
}

func (m *Metrics) ProverDone() {
	if m != nil {
		m.ProversInFlight.Dec()
	}
}

func (m *Metrics) RecordVerification(variant, outcome string) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(variant, outcome).Inc()
}
