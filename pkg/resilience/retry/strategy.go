package retry

import (
	"math/rand"
	"time"

	"mercator-hq/callisto/pkg/resilience"
)

// Decision is the outcome of a retry consultation.
type Decision struct {
	// Retry reports whether another attempt should be made.
	Retry bool

	// Delay is how long to wait before the next attempt. Zero means
	// retry immediately.
	Delay time.Duration
}

// giveUp is the terminal decision.
var giveUp = Decision{}

// Strategy decides whether a failed attempt should be retried, and after
// what delay. Implementations must be safe for concurrent use.
//
// attempt is 1-based: the first call after the initial failure passes
// attempt=1.
type Strategy interface {
	// ShouldRetry returns the decision for the given failure.
	ShouldRetry(kind resilience.ErrorKind, attempt int) Decision

	// RecordRetryResult feeds back whether a retried attempt of the given
	// kind eventually succeeded. Strategies that do not learn ignore it.
	RecordRetryResult(kind resilience.ErrorKind, success bool)
}

// jitter returns a random duration in [0, d/4). Jitter desynchronizes
// concurrent callers retrying against the same provider.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)/4 + 1))
}

// exponentialDelay computes base * 2^(attempt-1) capped at max, plus jitter.
func exponentialDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}

	d := delay + jitter(delay)
	if d > max {
		d = max
	}
	return d
}
