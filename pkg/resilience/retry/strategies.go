package retry

import (
	"sync"
	"time"

	"mercator-hq/callisto/pkg/resilience"
)

// Immediate retries up to MaxAttempts with zero delay. Intended for
// known-transient, cheap-to-retry failures (e.g. a dropped connection to a
// pooled backend). Rate-limit errors still back off exponentially.
type Immediate struct {
	// MaxAttempts is the retry budget. Default: 2.
	MaxAttempts int

	// RateLimitBase is the exponential base used when a rate-limit error
	// forces backoff. Default: 1s.
	RateLimitBase time.Duration

	// RateLimitMax caps the forced backoff. Default: 30s.
	RateLimitMax time.Duration
}

// NewImmediate creates an Immediate strategy with the given attempt budget.
func NewImmediate(maxAttempts int) *Immediate {
	return &Immediate{MaxAttempts: maxAttempts}
}

// ShouldRetry implements Strategy.
func (s *Immediate) ShouldRetry(kind resilience.ErrorKind, attempt int) Decision {
	if !kind.Retryable() {
		return giveUp
	}
	max := s.MaxAttempts
	if max <= 0 {
		max = 2
	}
	if attempt > max {
		return giveUp
	}
	if kind == resilience.KindRateLimit {
		return Decision{Retry: true, Delay: exponentialDelay(s.rateLimitBase(), s.rateLimitMax(), attempt)}
	}
	return Decision{Retry: true}
}

// RecordRetryResult implements Strategy. Immediate does not learn.
func (s *Immediate) RecordRetryResult(resilience.ErrorKind, bool) {}

func (s *Immediate) rateLimitBase() time.Duration {
	if s.RateLimitBase > 0 {
		return s.RateLimitBase
	}
	return time.Second
}

func (s *Immediate) rateLimitMax() time.Duration {
	if s.RateLimitMax > 0 {
		return s.RateLimitMax
	}
	return 30 * time.Second
}

// Exponential retries with base * 2^(attempt-1) delays capped at MaxDelay,
// plus jitter in [0, delay/4].
type Exponential struct {
	// MaxAttempts is the retry budget. Default: 3.
	MaxAttempts int

	// BaseDelay is the first retry's delay. Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay, jitter included. Default: 30s.
	MaxDelay time.Duration
}

// NewExponential creates an Exponential strategy.
func NewExponential(maxAttempts int, base, max time.Duration) *Exponential {
	return &Exponential{MaxAttempts: maxAttempts, BaseDelay: base, MaxDelay: max}
}

// ShouldRetry implements Strategy.
func (s *Exponential) ShouldRetry(kind resilience.ErrorKind, attempt int) Decision {
	if !kind.Retryable() {
		return giveUp
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if attempt > maxAttempts {
		return giveUp
	}
	return Decision{Retry: true, Delay: exponentialDelay(s.baseDelay(), s.maxDelay(), attempt)}
}

// RecordRetryResult implements Strategy. Exponential does not learn.
func (s *Exponential) RecordRetryResult(resilience.ErrorKind, bool) {}

func (s *Exponential) baseDelay() time.Duration {
	if s.BaseDelay > 0 {
		return s.BaseDelay
	}
	return time.Second
}

func (s *Exponential) maxDelay() time.Duration {
	if s.MaxDelay > 0 {
		return s.MaxDelay
	}
	return 30 * time.Second
}

// Adaptive keeps a rolling per-error-kind success rate of past retries and
// grows the attempt budget for kinds that historically recover, shrinking
// it for kinds that rarely do. Delays follow the Exponential schedule.
type Adaptive struct {
	// BaseAttempts is the budget for kinds with no history or a middling
	// recovery rate. Default: 3.
	BaseAttempts int

	// MinAttempts bounds how far a hopeless kind's budget shrinks.
	// Default: 1.
	MinAttempts int

	// MaxAttempts bounds how far a recovering kind's budget grows.
	// Default: 6.
	MaxAttempts int

	// BaseDelay and MaxDelay parameterize the backoff schedule.
	// Defaults: 1s and 30s.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// WindowSize is the number of retry results remembered per kind.
	// Default: 20.
	WindowSize int

	mu      sync.Mutex
	history map[resilience.ErrorKind]*kindHistory
}

// kindHistory is a fixed-size ring of retry results for one error kind.
type kindHistory struct {
	results   []bool
	head      int
	count     int
	successes int
}

func (h *kindHistory) record(success bool, size int) {
	if h.results == nil {
		h.results = make([]bool, size)
	}
	if h.count == len(h.results) {
		if h.results[h.head] {
			h.successes--
		}
	} else {
		h.count++
	}
	h.results[h.head] = success
	if success {
		h.successes++
	}
	h.head = (h.head + 1) % len(h.results)
}

func (h *kindHistory) successRate() (float64, bool) {
	if h == nil || h.count < 5 {
		return 0, false // not enough history to judge
	}
	return float64(h.successes) / float64(h.count), true
}

// NewAdaptive creates an Adaptive strategy with default tuning.
func NewAdaptive() *Adaptive {
	return &Adaptive{}
}

// ShouldRetry implements Strategy.
func (s *Adaptive) ShouldRetry(kind resilience.ErrorKind, attempt int) Decision {
	if !kind.Retryable() {
		return giveUp
	}
	if attempt > s.budget(kind) {
		return giveUp
	}
	// Every kind backs off exponentially here, which also satisfies the
	// rate-limit rule: an immediate retry against a rate limiter is
	// certain to fail again.
	return Decision{Retry: true, Delay: exponentialDelay(s.baseDelay(), s.maxDelayDur(), attempt)}
}

// RecordRetryResult implements Strategy.
func (s *Adaptive) RecordRetryResult(kind resilience.ErrorKind, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history == nil {
		s.history = make(map[resilience.ErrorKind]*kindHistory)
	}
	h := s.history[kind]
	if h == nil {
		h = &kindHistory{}
		s.history[kind] = h
	}
	h.record(success, s.windowSize())
}

// budget returns the current attempt budget for an error kind: the base
// budget stretched up for kinds whose retries historically succeed and
// squeezed down for kinds that rarely recover.
func (s *Adaptive) budget(kind resilience.ErrorKind) int {
	s.mu.Lock()
	rate, ok := s.history[kind].successRate()
	s.mu.Unlock()

	base := s.baseAttempts()
	if !ok {
		return base
	}
	switch {
	case rate >= 0.7:
		return s.maxAttempts()
	case rate <= 0.2:
		return s.minAttempts()
	default:
		return base
	}
}

func (s *Adaptive) baseAttempts() int {
	if s.BaseAttempts > 0 {
		return s.BaseAttempts
	}
	return 3
}

func (s *Adaptive) minAttempts() int {
	if s.MinAttempts > 0 {
		return s.MinAttempts
	}
	return 1
}

func (s *Adaptive) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return 6
}

func (s *Adaptive) baseDelay() time.Duration {
	if s.BaseDelay > 0 {
		return s.BaseDelay
	}
	return time.Second
}

func (s *Adaptive) maxDelayDur() time.Duration {
	if s.MaxDelay > 0 {
		return s.MaxDelay
	}
	return 30 * time.Second
}

func (s *Adaptive) windowSize() int {
	if s.WindowSize > 0 {
		return s.WindowSize
	}
	return 20
}
