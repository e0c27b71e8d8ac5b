package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Classifier maps raw work-unit errors to an ErrorKind. The classifier is
// supplied by configuration; the default understands the error types that
// flow through this codebase. Classifiers must be safe for concurrent use.
type Classifier interface {
	Classify(err error) ErrorKind
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(err error) ErrorKind

// Classify implements Classifier.
func (f ClassifierFunc) Classify(err error) ErrorKind {
	return f(err)
}

// DefaultClassifier classifies errors from their Go error chain:
//
//   - context.DeadlineExceeded and TimeoutError -> timeout
//   - net.Error timeouts -> timeout
//   - dial/reset/refused and other net.OpError failures -> connection
//   - RateLimitedError -> rate_limit
//   - BadRequestError -> client_error
//   - UpstreamError -> server_error
//   - anything else -> unknown
//
// context.Canceled is deliberately classified as unknown: cancellation is
// handled as a neutral outcome before classification ever runs, so a
// classifier seeing context.Canceled means the work unit swallowed and
// re-wrapped it.
type DefaultClassifier struct{}

// Classify implements Classifier.
func (DefaultClassifier) Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	// Typed errors used by callers to tag upstream responses.
	var rle *RateLimitedError
	if errors.As(err, &rle) {
		return KindRateLimit
	}
	var bre *BadRequestError
	if errors.As(err, &bre) {
		return KindClientError
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		if ue.StatusCode >= 400 && ue.StatusCode < 500 {
			if ue.StatusCode == 429 {
				return KindRateLimit
			}
			return KindClientError
		}
		return KindServerError
	}

	// Deadline and timeout detection.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	// Transport failures.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindConnection
	}

	return KindUnknown
}

// RateLimitedError tags an upstream rate-limit rejection. Callers wrap
// provider 429 responses in this type so the default classifier and retry
// strategies can back off correctly.
type RateLimitedError struct {
	// Provider is the provider that rate limited the request.
	Provider string

	// RetryAfter is the provider-suggested wait, if any.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limited the request (retry after %s)", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("provider %q rate limited the request", e.Provider)
}

// BadRequestError tags a request the upstream rejected as malformed or
// unauthorized. Never retried.
type BadRequestError struct {
	// Provider is the provider that rejected the request.
	Provider string

	// Message describes the rejection.
	Message string
}

// Error implements the error interface.
func (e *BadRequestError) Error() string {
	return fmt.Sprintf("provider %q rejected the request: %s", e.Provider, e.Message)
}

// UpstreamError tags a classified upstream HTTP failure by status code.
type UpstreamError struct {
	// Provider is the provider that returned the error.
	Provider string

	// StatusCode is the upstream HTTP status code.
	StatusCode int
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q returned status %d", e.Provider, e.StatusCode)
}
