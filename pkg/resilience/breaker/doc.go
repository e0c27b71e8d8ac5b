// Package breaker implements the per-provider circuit breaker used by the
// Callisto resilience core.
//
// # Overview
//
// Each upstream provider gets one Breaker. The breaker is a three-state
// machine:
//
//   - closed: normal operation, calls pass through
//   - open: the provider is considered broken, calls are rejected
//     immediately until the recovery timeout elapses
//   - half-open: trial state after recovery, a limited number of calls are
//     admitted to test whether the provider has recovered
//
// A breaker opens after FailureThreshold consecutive-window failures while
// closed, and reopens immediately on any failure while half-open. It closes
// again only after SuccessThreshold consecutive half-open successes.
//
// # Adaptive tuning
//
// The failure threshold is not static. An exponential moving average of call
// outcomes tracks each provider's recent success rate; the pool's background
// adaptation loop calls Tune periodically, lowering the threshold (failing
// faster) for providers with a very high success rate and raising it
// (tolerating noise) for providers that are already degraded. The threshold
// always stays within [MinFailureThreshold, MaxFailureThreshold].
//
// # Thread safety
//
// All state mutation is serialized behind a per-breaker mutex, so breakers
// for different providers never contend with each other.
package breaker
