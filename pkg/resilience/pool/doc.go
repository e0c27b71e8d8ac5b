// Package pool owns one circuit breaker and one timeout estimator per
// provider and exposes "execute under protection".
//
// # Overview
//
// Execute looks up (or lazily creates) the provider's breaker and
// estimator, rejects immediately with a CircuitOpenError when the breaker
// is open, and otherwise runs the work unit under a deadline taken from the
// estimator (or an explicit override). The outcome is recorded into both
// the breaker and the estimator; cancelled attempts are neutral and touch
// neither.
//
// There is no "call with no timeout" path: every call governed by the pool
// has an enforced deadline.
//
// # Background adaptation
//
// A single supervised goroutine per pool, started at construction and
// stopped by Close, periodically runs each breaker's adaptive-tuning step.
// The loop never blocks Execute, and a panic while tuning one provider is
// isolated so it cannot affect other providers or kill the loop.
//
// # Metrics
//
// Snapshot returns read-only per-provider views (state, counts, tuned
// threshold, current timeout) for external monitoring.
package pool
