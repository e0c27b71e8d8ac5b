// Package timeout implements per-provider adaptive timeout estimation.
//
// # Overview
//
// Fixed timeouts are either too loose (slow failure detection) or too tight
// (spurious timeouts during normal latency variance). Each provider gets an
// Estimator fed with observed call latencies; the estimator derives an
// effective timeout from a bounded rolling window using one of four
// strategies:
//
//   - fixed: static value, never adapts
//   - adaptive: exponential moving average of latency times a margin that
//     shrinks as the provider's success rate rises
//   - quantile: P95 of the window times a margin factor
//   - predictive: quantile base adjusted by the recent latency trend
//
// Whatever the strategy computes, the effective timeout is clamped to a
// configured [min, max] band so transient spikes can neither blow the
// timeout out nor collapse it.
//
// # Ownership
//
// Estimators are owned by the breaker pool: call-completion paths feed
// observations, and only the pool reads the current timeout. No other
// component mutates estimator state.
package timeout
