// Package retry implements error-kind-aware retry strategies.
//
// # Overview
//
// A Strategy is a pure decision function: given an error classification and
// the attempt number, it either returns a delay to wait before the next
// attempt or says give up. Three strategies are provided:
//
//   - Immediate: up to MaxAttempts with zero delay, for known-transient
//     cheap-to-retry failures
//   - Exponential: base * 2^(attempt-1) capped at MaxDelay, with random
//     jitter in [0, delay/4] so concurrent callers do not retry in lockstep
//   - Adaptive: tracks a rolling per-error-kind retry success rate and
//     widens or narrows the attempt budget per kind accordingly
//
// Two rules hold regardless of the configured strategy:
//
//   - client errors are never retried: they signal a configuration problem,
//     not transient unavailability
//   - rate-limit errors always back off exponentially, since an immediate
//     retry against a rate limiter is certain to fail again
//
// # Feedback
//
// The Adaptive strategy learns from observed retry results via
// RecordRetryResult; callers (the fallback engine) report whether each
// retried attempt eventually succeeded. Immediate and Exponential ignore
// the feedback.
package retry
