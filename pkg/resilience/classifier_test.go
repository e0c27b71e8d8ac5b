package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"
)

// timeoutNetError is a minimal net.Error with Timeout() == true.
type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestDefaultClassifier(t *testing.T) {
	c := DefaultClassifier{}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "rate limited error",
			err:  &RateLimitedError{Provider: "openai", RetryAfter: 2 * time.Second},
			want: KindRateLimit,
		},
		{
			name: "wrapped rate limited error",
			err:  fmt.Errorf("call failed: %w", &RateLimitedError{Provider: "openai"}),
			want: KindRateLimit,
		},
		{
			name: "bad request error",
			err:  &BadRequestError{Provider: "anthropic", Message: "missing model"},
			want: KindClientError,
		},
		{
			name: "upstream 500",
			err:  &UpstreamError{Provider: "openai", StatusCode: 500},
			want: KindServerError,
		},
		{
			name: "upstream 503",
			err:  &UpstreamError{Provider: "openai", StatusCode: 503},
			want: KindServerError,
		},
		{
			name: "upstream 400",
			err:  &UpstreamError{Provider: "openai", StatusCode: 400},
			want: KindClientError,
		},
		{
			name: "upstream 429 maps to rate limit",
			err:  &UpstreamError{Provider: "openai", StatusCode: 429},
			want: KindRateLimit,
		},
		{
			name: "context deadline exceeded",
			err:  context.DeadlineExceeded,
			want: KindTimeout,
		},
		{
			name: "wrapped deadline exceeded",
			err:  fmt.Errorf("request aborted: %w", context.DeadlineExceeded),
			want: KindTimeout,
		},
		{
			name: "pool timeout error",
			err:  &TimeoutError{Provider: "openai", Timeout: 5 * time.Second},
			want: KindTimeout,
		},
		{
			name: "net timeout",
			err:  timeoutNetError{},
			want: KindTimeout,
		},
		{
			name: "net op error",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			want: KindConnection,
		},
		{
			name: "connection refused errno",
			err:  fmt.Errorf("dial upstream: %w", syscall.ECONNREFUSED),
			want: KindConnection,
		},
		{
			name: "connection reset errno",
			err:  fmt.Errorf("read response: %w", syscall.ECONNRESET),
			want: KindConnection,
		},
		{
			name: "plain error",
			err:  errors.New("something odd"),
			want: KindUnknown,
		},
		{
			name: "nil error",
			err:  nil,
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.err)
			if got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorKindRetryable(t *testing.T) {
	if KindClientError.Retryable() {
		t.Error("client errors must never be retryable")
	}
	for _, k := range []ErrorKind{KindRateLimit, KindTimeout, KindConnection, KindServerError, KindUnknown} {
		if !k.Retryable() {
			t.Errorf("expected %s to be retryable", k)
		}
	}
}

func TestAggregateErrorFormatting(t *testing.T) {
	agg := &AggregateError{
		Attempted: []string{"openai", "anthropic"},
		LastErrors: map[string]error{
			"openai":    &TimeoutError{Provider: "openai", Timeout: 5 * time.Second},
			"anthropic": &CircuitOpenError{Provider: "anthropic"},
		},
	}

	if !errors.Is(agg, ErrAllCandidatesFailed) {
		t.Error("expected AggregateError to match ErrAllCandidatesFailed")
	}

	msg := agg.Error()
	for _, want := range []string{"openai", "anthropic", "circuit open"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected aggregate message to contain %q, got %q", want, msg)
		}
	}

	// Per-provider errors remain reachable through the chain.
	var coe *CircuitOpenError
	if !errors.As(agg, &coe) {
		t.Error("expected errors.As to find CircuitOpenError in aggregate")
	}
}

func TestCircuitOpenErrorIs(t *testing.T) {
	err := fmt.Errorf("execute: %w", &CircuitOpenError{Provider: "openai", RetryAfter: time.Minute})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Error("expected wrapped CircuitOpenError to match ErrCircuitOpen")
	}
}

