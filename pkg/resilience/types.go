package resilience

import "time"

// ErrorKind classifies a provider failure for retry and breaker decisions.
type ErrorKind string

const (
	// KindRateLimit indicates the provider rejected the call due to rate
	// limiting (HTTP 429 or equivalent). Retryable, but only with backoff.
	KindRateLimit ErrorKind = "rate_limit"

	// KindTimeout indicates the call exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindConnection indicates a transport-level failure (DNS, dial,
	// connection reset) before a response was received.
	KindConnection ErrorKind = "connection"

	// KindServerError indicates the provider returned a server-side error
	// (HTTP 5xx or equivalent).
	KindServerError ErrorKind = "server_error"

	// KindClientError indicates the request itself was rejected (HTTP 4xx,
	// auth failure, malformed request). Never retryable: it signals a
	// configuration problem, not transient unavailability.
	KindClientError ErrorKind = "client_error"

	// KindUnknown is used when no more specific classification applies.
	KindUnknown ErrorKind = "unknown"
)

// String returns the kind's metric label value.
func (k ErrorKind) String() string {
	return string(k)
}

// Retryable reports whether errors of this kind may ever be retried.
func (k ErrorKind) Retryable() bool {
	return k != KindClientError
}

// Outcome is the neutral-aware result of a single provider attempt.
// Cancelled attempts are excluded from success/failure ratios everywhere:
// an attempt that lost a race was not given a fair chance to complete.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
)

// String returns the outcome's metric label value.
func (o Outcome) String() string {
	return string(o)
}

// AttemptResult summarizes one completed provider attempt, as fed to the
// health registry and any outcome sinks.
type AttemptResult struct {
	// Provider is the provider that served (or failed) the attempt.
	Provider string

	// Outcome is the neutral-aware result of the attempt.
	Outcome Outcome

	// Kind is the error classification for failed attempts
	// (empty for successes and cancellations).
	Kind ErrorKind

	// Latency is the observed attempt duration.
	Latency time.Duration

	// Timestamp is when the attempt completed.
	Timestamp time.Time
}

// Sink receives completed attempt results. Implementations must not block:
// the fallback engine and pool publish results on the request path.
// The journal package provides a buffered SQLite-backed implementation;
// the metrics collector is also a Sink.
type Sink interface {
	RecordAttempt(result AttemptResult)
}

// MultiSink fans a result out to several sinks.
type MultiSink []Sink

// RecordAttempt implements Sink.
func (m MultiSink) RecordAttempt(result AttemptResult) {
	for _, s := range m {
		s.RecordAttempt(result)
	}
}
