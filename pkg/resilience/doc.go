// Package resilience provides the shared vocabulary for the Callisto
// resilience core: error kinds, call outcomes, the error taxonomy surfaced
// by the breaker pool and fallback engine, and the pluggable error
// classifier.
//
// # Overview
//
// The resilience core sits in front of several independent, unreliable
// upstream LLM providers. Its sub-packages cooperate to pick providers,
// bound call duration, tolerate partial failure, and return the first
// usable result:
//
//   - breaker: per-provider circuit breaker with adaptive threshold tuning
//   - timeout: per-provider adaptive timeout estimation
//   - retry: error-kind-aware retry strategies with jittered backoff
//   - health: rolling-window provider health scoring and ranking
//   - pool: one breaker + one estimator per provider, "execute under
//     protection", background adaptation loop
//   - fallback: first-success-wins racing across ranked candidates
//
// This package holds only the types those sub-packages exchange. It has no
// state of its own.
//
// # Error classification
//
// Raw errors from provider work units are mapped to an ErrorKind by a
// Classifier. The default classifier understands context cancellation and
// deadlines, net errors, and the typed provider errors used across the
// Callisto codebase. Callers with richer upstream knowledge (HTTP status
// codes, provider SDK error types) supply their own Classifier at
// construction time.
//
// # Thread safety
//
// Everything in this package is immutable after construction and safe for
// concurrent use.
package resilience
