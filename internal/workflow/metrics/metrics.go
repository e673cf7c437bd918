package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the workflow engine.
type Metrics struct {
	GateDecisions       *prometheus.CounterVec
	PreconditionRefused prometheus.Counter
	OnboardingFinished  prometheus.Counter
	Reevaluations       prometheus.Counter
}

// New creates and registers all workflow metrics.
func New() *Metrics {
	return &Metrics{
		GateDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_portal_gate_decisions_total",
			Help: "Total number of successful gate decisions by gate and decision",
		}, []string{"gate", "decision"}),
		PreconditionRefused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_portal_gate_precondition_refusals_total",
			Help: "Total number of gate actions refused by a business precondition",
		}),
		OnboardingFinished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_portal_onboarding_finished_total",
			Help: "Total number of companies that finished onboarding",
		}),
		Reevaluations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_portal_requirement_reevaluations_total",
			Help: "Total number of minimum-requirement re-evaluations",
		}),
	}
}

// IncrementDecision records one successful gate decision.
func (m *Metrics) IncrementDecision(gate, decision string) {
	m.GateDecisions.WithLabelValues(gate, decision).Inc()
}
