package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BreakerMetrics tracks circuit breaker state per provider.
//
// Metrics:
//   - callisto_breaker_state: Current breaker state (0=closed, 1=half-open, 2=open)
//   - callisto_breaker_transitions_total: State transitions by from/to state
//   - callisto_breaker_failure_threshold: Current adaptive failure threshold
type BreakerMetrics struct {
	// Current breaker state (gauge: 0=closed, 1=half-open, 2=open)
	state *prometheus.GaugeVec

	// State transition counter
	transitions *prometheus.CounterVec

	// Current adaptive failure threshold
	failureThreshold *prometheus.GaugeVec
}

// NewBreakerMetrics creates and registers breaker metrics with the provided
// registry.
func NewBreakerMetrics(registry *prometheus.Registry) *BreakerMetrics {
	bm := &BreakerMetrics{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),

		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "breaker_transitions_total",
				Help:      "Total circuit breaker state transitions",
			},
			[]string{"provider", "from", "to"},
		),

		failureThreshold: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_failure_threshold",
				Help:      "Current adaptive consecutive-failure threshold",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		bm.state,
		bm.transitions,
		bm.failureThreshold,
	)

	return bm
}

// stateValue maps breaker state names onto gauge values. Closed is zero so
// a healthy fleet graphs flat at zero.
func stateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}

// UpdateState sets the state gauge for a provider.
func (bm *BreakerMetrics) UpdateState(provider, state string) {
	bm.state.WithLabelValues(provider).Set(stateValue(state))
}

// RecordTransition records a breaker state change and updates the state
// gauge to the new state.
func (bm *BreakerMetrics) RecordTransition(provider, from, to string) {
	bm.transitions.WithLabelValues(provider, from, to).Inc()
	bm.UpdateState(provider, to)
}

// UpdateFailureThreshold sets the adaptive threshold gauge for a provider.
func (bm *BreakerMetrics) UpdateFailureThreshold(provider string, threshold int) {
	bm.failureThreshold.WithLabelValues(provider).Set(float64(threshold))
}
