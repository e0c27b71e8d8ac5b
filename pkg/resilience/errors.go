package resilience

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Common resilience errors that can be checked with errors.Is().
var (
	// ErrCircuitOpen is returned when a provider's breaker rejects a call
	// before any attempt is made.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrAllCandidatesFailed is returned when every candidate provider
	// (including allowed retries) has failed.
	ErrAllCandidatesFailed = errors.New("all candidate providers failed")

	// ErrNoCandidates is returned when a race is started with an empty
	// candidate list.
	ErrNoCandidates = errors.New("no candidate providers")
)

// CircuitOpenError is returned by the pool when a provider's circuit breaker
// is open and the call was rejected without being attempted. It is the
// primary backpressure mechanism: callers should skip the provider rather
// than retry.
type CircuitOpenError struct {
	// Provider is the provider whose breaker is open.
	Provider string

	// RetryAfter is how long until the breaker will admit a trial call.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q circuit open (retry after %s)", e.Provider, e.RetryAfter.Round(time.Millisecond))
	}
	return fmt.Sprintf("provider %q circuit open", e.Provider)
}

// Is implements error matching for errors.Is().
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// TimeoutError is returned when a protected call exceeded its enforced
// deadline. The deadline may come from the provider's adaptive timeout
// estimator or from an explicit override.
type TimeoutError struct {
	// Provider is the provider whose call timed out.
	Provider string

	// Timeout is the deadline that was enforced.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q call timed out after %s", e.Provider, e.Timeout)
}

// Is implements error matching for errors.Is().
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ErrTimeout is the sentinel for TimeoutError matching.
var ErrTimeout = errors.New("provider call timed out")

// ProviderError wraps a classified failure returned by a work unit.
type ProviderError struct {
	// Provider is the provider that failed.
	Provider string

	// Kind is the error classification.
	Kind ErrorKind

	// Cause is the underlying error from the work unit.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %q failed (%s): %v", e.Provider, e.Kind, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CancelledError is returned for attempts that lost a race or were cut short
// by the global deadline. Cancelled attempts are never recorded as provider
// failures.
type CancelledError struct {
	// Provider is the provider whose attempt was cancelled.
	Provider string
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("provider %q attempt cancelled", e.Provider)
}

// AggregateError is the only error surfaced to external callers by the
// fallback engine. It carries the last error per attempted provider for
// diagnostics.
type AggregateError struct {
	// LastErrors maps each attempted provider to its final error.
	LastErrors map[string]error

	// Attempted lists providers in the order they were tried.
	Attempted []string
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if len(e.LastErrors) == 0 {
		return "all candidate providers failed"
	}

	providers := e.Attempted
	if len(providers) == 0 {
		providers = make([]string, 0, len(e.LastErrors))
		for p := range e.LastErrors {
			providers = append(providers, p)
		}
		sort.Strings(providers)
	}

	var b strings.Builder
	b.WriteString("all candidate providers failed: ")
	for i, p := range providers {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", p, e.LastErrors[p])
	}
	return b.String()
}

// Is implements error matching for errors.Is().
func (e *AggregateError) Is(target error) bool {
	return target == ErrAllCandidatesFailed
}

// Unwrap exposes the per-provider errors to errors.Is/errors.As chains.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.LastErrors))
	for _, err := range e.LastErrors {
		errs = append(errs, err)
	}
	return errs
}
