// Package metrics provides Prometheus metrics for Callisto.
//
// # Overview
//
// The Collector owns a Prometheus registry and groups metrics by concern:
// attempt outcomes and latency, circuit breaker state, and fallback races.
// It implements resilience.Sink, so the breaker pool's attempt stream can
// feed it directly alongside the health registry and outcome journal.
//
// # Metric Naming
//
// All metrics live under the "callisto" namespace:
//
//   - callisto_attempts_total{provider, outcome, kind}
//   - callisto_attempt_latency_seconds{provider}
//   - callisto_effective_timeout_seconds{provider}
//   - callisto_health_tier{provider}
//   - callisto_breaker_state{provider}
//   - callisto_breaker_transitions_total{provider, from, to}
//   - callisto_breaker_failure_threshold{provider}
//   - callisto_races_total{result}
//   - callisto_race_duration_seconds{result}
//   - callisto_race_attempts
//
// # HTTP Exposure
//
// Handler returns a promhttp handler for the collector's registry:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
package metrics
