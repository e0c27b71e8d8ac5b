package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/resilience"
)

// AttemptMetrics tracks per-provider attempt outcomes and latency.
//
// Metrics:
//   - callisto_attempts_total: Attempt count by provider, outcome, and error kind
//   - callisto_attempt_latency_seconds: Attempt latency for completed attempts
//   - callisto_effective_timeout_seconds: Currently enforced per-provider timeout
//   - callisto_health_tier: Current health tier (0=excellent .. 4=unhealthy)
type AttemptMetrics struct {
	// Attempt counter by provider, outcome, and error kind
	attempts *prometheus.CounterVec

	// Attempt latency histogram for completed (non-cancelled) attempts
	latency *prometheus.HistogramVec

	// Currently enforced timeout per provider
	effectiveTimeout *prometheus.GaugeVec

	// Current health tier per provider
	healthTier *prometheus.GaugeVec
}

// NewAttemptMetrics creates and registers attempt metrics with the provided
// registry.
func NewAttemptMetrics(registry *prometheus.Registry) *AttemptMetrics {
	am := &AttemptMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Total provider attempts by outcome and error kind",
			},
			[]string{"provider", "outcome", "kind"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_latency_seconds",
				Help:      "Provider attempt latency in seconds",
				// Optimized for LLM request latencies (100ms - 120s)
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"provider"},
		),

		effectiveTimeout: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "effective_timeout_seconds",
				Help:      "Currently enforced per-provider timeout in seconds",
			},
			[]string{"provider"},
		),

		healthTier: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "health_tier",
				Help:      "Current provider health tier (0=excellent, 4=unhealthy)",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		am.attempts,
		am.latency,
		am.effectiveTimeout,
		am.healthTier,
	)

	return am
}

// Record records one attempt result. Cancelled attempts count in the
// attempt counter with an empty kind but do not feed the latency histogram,
// since their latency reflects the race rather than the provider.
func (am *AttemptMetrics) Record(result resilience.AttemptResult) {
	am.attempts.WithLabelValues(result.Provider, string(result.Outcome), string(result.Kind)).Inc()

	if result.Outcome != resilience.OutcomeCancelled {
		am.latency.WithLabelValues(result.Provider).Observe(result.Latency.Seconds())
	}
}

// UpdateEffectiveTimeout sets the enforced timeout gauge for a provider.
func (am *AttemptMetrics) UpdateEffectiveTimeout(provider string, timeout time.Duration) {
	am.effectiveTimeout.WithLabelValues(provider).Set(timeout.Seconds())
}

// UpdateHealthTier sets the health tier gauge for a provider.
func (am *AttemptMetrics) UpdateHealthTier(provider string, tier int) {
	am.healthTier.WithLabelValues(provider).Set(float64(tier))
}
