// Package fallback implements first-success-wins racing across ranked
// provider candidates.
//
// # Overview
//
// Run takes a candidate list and a unit of work. Candidates are ranked by
// the health registry (unhealthy and disabled providers filtered, best
// tier and latency first), then raced with bounded fan-out: the first K
// ranked candidates start immediately and the remainder are launched only
// as earlier attempts fail. Every attempt runs under the breaker pool's
// protection and the configured retry strategy.
//
// The first attempt to complete successfully wins. The engine immediately
// cancels all other in-flight attempts via context and returns the winning
// result with race metrics. Cancellation is cooperative: losing attempts
// observe ctx.Done at their next suspension point (retry wait, network
// call) and are recorded as neutral cancellations, never as provider
// failures.
//
// If every candidate fails, or the global deadline elapses first, the
// caller gets a single AggregateError carrying the last failure per
// attempted provider. Callers never see partial results.
package fallback
