package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/resilience"
)

// namespace is the Prometheus namespace for all Callisto metrics.
const namespace = "callisto"

// Collector is the orchestrator for all Prometheus metrics in Callisto.
// It manages metric registration and provides a unified interface for
// recording metrics across the dispatch core.
//
// Collector implements resilience.Sink, so it can be wired directly into
// the breaker pool's attempt stream.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	attemptMetrics *AttemptMetrics
	breakerMetrics *BreakerMetrics
	raceMetrics    *RaceMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		enabled:  cfg.IsEnabled(),
		registry: registry,
	}

	c.attemptMetrics = NewAttemptMetrics(registry)
	c.breakerMetrics = NewBreakerMetrics(registry)
	c.raceMetrics = NewRaceMetrics(registry)

	return c
}

// RecordAttempt implements resilience.Sink. Every attempt outcome the pool
// publishes, including neutral cancellations, shows up in the attempt
// counters; latency histograms only see completed attempts.
func (c *Collector) RecordAttempt(result resilience.AttemptResult) {
	if !c.enabled {
		return
	}
	c.attemptMetrics.Record(result)
}

// RecordBreakerTransition records a breaker state change.
func (c *Collector) RecordBreakerTransition(provider, from, to string) {
	if !c.enabled {
		return
	}
	c.breakerMetrics.RecordTransition(provider, from, to)
}

// UpdateBreakerState sets the current breaker state gauge for a provider.
func (c *Collector) UpdateBreakerState(provider, state string) {
	if !c.enabled {
		return
	}
	c.breakerMetrics.UpdateState(provider, state)
}

// UpdateFailureThreshold sets the current adaptive failure threshold gauge
// for a provider.
func (c *Collector) UpdateFailureThreshold(provider string, threshold int) {
	if !c.enabled {
		return
	}
	c.breakerMetrics.UpdateFailureThreshold(provider, threshold)
}

// UpdateEffectiveTimeout sets the currently enforced timeout gauge for a
// provider.
func (c *Collector) UpdateEffectiveTimeout(provider string, timeout time.Duration) {
	if !c.enabled {
		return
	}
	c.attemptMetrics.UpdateEffectiveTimeout(provider, timeout)
}

// UpdateHealthTier sets the health tier gauge for a provider. Lower values
// are healthier.
func (c *Collector) UpdateHealthTier(provider string, tier int) {
	if !c.enabled {
		return
	}
	c.attemptMetrics.UpdateHealthTier(provider, tier)
}

// RecordRace records a finished fallback race.
//
// Parameters:
//   - result: "success", "failure", or "deadline"
//   - duration: caller-visible race duration
//   - attempts: total provider attempts made, retries included
func (c *Collector) RecordRace(result string, duration time.Duration, attempts int) {
	if !c.enabled {
		return
	}
	c.raceMetrics.Record(result, duration, attempts)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
