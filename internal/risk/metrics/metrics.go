// Package metrics exposes Prometheus metrics for risk evaluations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for remediation steps and safeguard lookups.
const (
	OutcomeApplied = "applied"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"

	LookupCertified   = "certified"
	LookupUncertified = "uncertified"
	LookupError       = "error"
	LookupTimeout     = "timeout"
)

type Metrics struct {
	EvaluationsTotal          *prometheus.CounterVec   // by tier
	EvaluationDurationSeconds prometheus.Histogram     // facade latency, safeguard lookups included
	ScoreDistribution         prometheus.Histogram     // total score
	ViolationsTotal           *prometheus.CounterVec   // by violation kind
	DuplicateFindingsTotal    *prometheus.CounterVec   // by recommendation
	BlockedTotal              prometheus.Counter       // evaluations stopped by a BLOCK duplicate
	RemediationStepsTotal     *prometheus.CounterVec   // by step and outcome
	RemediationSkippedTotal   *prometheus.CounterVec   // by reason
	SafeguardLookupsTotal     *prometheus.CounterVec   // by outcome
	SafeguardLookupDuration   *prometheus.HistogramVec // by outcome
	DegradedLoadsTotal        *prometheus.CounterVec   // by input
}

// New registers metrics on the default registry. Call once per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers metrics on reg, so tests can use a private registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_evaluations_total",
			Help: "Risk evaluations by assigned tier",
		}, []string{"tier"}),

		EvaluationDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_risk_evaluation_duration_seconds",
			Help:    "Duration of a full evaluation including remediation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ScoreDistribution: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_risk_score",
			Help:    "Distribution of total risk scores",
			Buckets: []float64{5, 12, 20, 30, 40, 60},
		}),

		ViolationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_violations_total",
			Help: "Consistency violations by kind",
		}, []string{"kind"}),

		DuplicateFindingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_duplicate_findings_total",
			Help: "Duplicate findings by recommendation",
		}, []string{"recommendation"}),

		BlockedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "custodia_risk_blocked_total",
			Help: "Evaluations whose remediation was skipped by a BLOCK duplicate",
		}),

		RemediationStepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_remediation_steps_total",
			Help: "Remediation steps by step name and outcome",
		}, []string{"step", "outcome"}),

		RemediationSkippedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_remediation_skipped_total",
			Help: "Remediation runs skipped before any effect, by reason",
		}, []string{"reason"}),

		SafeguardLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_safeguard_lookups_total",
			Help: "USA provider certification lookups by outcome",
		}, []string{"outcome"}),

		SafeguardLookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custodia_risk_safeguard_lookup_duration_seconds",
			Help:    "Duration of certification lookups by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"outcome"}),

		DegradedLoadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_risk_degraded_loads_total",
			Help: "Tenant inputs that could not be loaded for an evaluation",
		}, []string{"input"}),
	}
}

func (m *Metrics) ObserveEvaluation(tier string, score int, d time.Duration) {
	m.EvaluationsTotal.WithLabelValues(tier).Inc()
	m.ScoreDistribution.Observe(float64(score))
	m.EvaluationDurationSeconds.Observe(d.Seconds())
}

func (m *Metrics) IncrementViolation(kind string) {
	m.ViolationsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementDuplicate(recommendation string) {
	m.DuplicateFindingsTotal.WithLabelValues(recommendation).Inc()
}

func (m *Metrics) IncrementBlocked() {
	m.BlockedTotal.Inc()
}

// ObserveStep records the outcome of one remediation step.
func (m *Metrics) ObserveStep(step, outcome string) {
	m.RemediationStepsTotal.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) IncrementRemediationSkipped(reason string) {
	m.RemediationSkippedTotal.WithLabelValues(reason).Inc()
}

// ObserveSafeguardLookup records a certification lookup.
func (m *Metrics) ObserveSafeguardLookup(outcome string, d time.Duration) {
	m.SafeguardLookupsTotal.WithLabelValues(outcome).Inc()
	m.SafeguardLookupDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) IncrementDegraded(input string) {
	m.DegradedLoadsTotal.WithLabelValues(input).Inc()
}
