package breaker

import (
	"log/slog"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/resilience"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation; calls pass through.
	StateOpen                  // Failing; calls are rejected immediately.
	StateHalfOpen              // Probing; limited calls allowed to test recovery.
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker tunables. Zero values are replaced by
// defaults in New.
type Config struct {
	// FailureThreshold is the initial number of failures that opens a
	// closed breaker. Adaptive tuning moves it within
	// [MinFailureThreshold, MaxFailureThreshold]. Default: 5.
	FailureThreshold int

	// MinFailureThreshold is the tuning floor. Default: 3.
	MinFailureThreshold int

	// MaxFailureThreshold is the tuning ceiling. Default: 20.
	MaxFailureThreshold int

	// RecoveryTimeout is how long an open breaker rejects calls before
	// admitting a half-open trial. Default: 60s.
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker. Default: 3.
	SuccessThreshold int

	// EMAAlpha is the smoothing factor for the success-rate moving
	// average. Default: 0.1.
	EMAAlpha float64

	// TuneHighWater is the success-rate EMA above which tuning lowers the
	// failure threshold to fail faster on degradation. Default: 0.95.
	TuneHighWater float64

	// TuneLowWater is the success-rate EMA below which tuning raises the
	// failure threshold to tolerate noisy failures. Default: 0.80.
	TuneLowWater float64
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		MinFailureThreshold: 3,
		MaxFailureThreshold: 20,
		RecoveryTimeout:     60 * time.Second,
		SuccessThreshold:    3,
		EMAAlpha:            0.1,
		TuneHighWater:       0.95,
		TuneLowWater:        0.80,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.MinFailureThreshold <= 0 {
		c.MinFailureThreshold = def.MinFailureThreshold
	}
	if c.MaxFailureThreshold <= 0 {
		c.MaxFailureThreshold = def.MaxFailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = def.RecoveryTimeout
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = def.SuccessThreshold
	}
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		c.EMAAlpha = def.EMAAlpha
	}
	if c.TuneHighWater <= 0 {
		c.TuneHighWater = def.TuneHighWater
	}
	if c.TuneLowWater <= 0 {
		c.TuneLowWater = def.TuneLowWater
	}
	return c
}

// Snapshot is a read-only view of a breaker's state at a point in time.
type Snapshot struct {
	Provider          string
	State             State
	FailureCount      int
	SuccessCount      int
	FailureThreshold  int
	SuccessRateEMA    float64
	HalfOpenSuccesses int
	OpenedAt          time.Time
}

// TransitionFunc is invoked on every state change, outside metrics-sensitive
// hot paths but while the breaker lock is held; implementations must be
// cheap and must not call back into the breaker.
type TransitionFunc func(provider string, from, to State)

// Breaker is a per-provider circuit breaker with an adaptively tuned
// failure threshold.
type Breaker struct {
	mu sync.Mutex

	provider string
	cfg      Config
	logger   *slog.Logger

	// now is the clock, injectable for tests.
	now func() time.Time

	state             State
	failureCount      int
	successCount      int
	failureThreshold  int
	successRateEMA    float64
	halfOpenSuccesses int
	openedAt          time.Time

	onTransition TransitionFunc
}

// Option customizes a Breaker.
type Option func(*Breaker)

// WithClock overrides the breaker's time source. Used by tests to step
// through recovery timeouts without sleeping.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// WithTransitionFunc registers a hook invoked on every state change.
func WithTransitionFunc(fn TransitionFunc) Option {
	return func(b *Breaker) { b.onTransition = fn }
}

// WithLogger overrides the breaker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Breaker) { b.logger = logger }
}

// New creates a circuit breaker for the given provider.
func New(provider string, cfg Config, opts ...Option) *Breaker {
	cfg = cfg.withDefaults()
	b := &Breaker{
		provider:         provider,
		cfg:              cfg,
		logger:           slog.Default().With("component", "resilience.breaker", "provider", provider),
		now:              time.Now,
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		// Optimistic prior: a fresh provider is assumed healthy so the
		// first tuning pass does not raise its threshold.
		successRateEMA: 1.0,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed. An open breaker whose recovery
// timeout has elapsed transitions to half-open and admits the call.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.RecoveryTimeout {
			b.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// OpenRemaining returns how long until an open breaker admits a trial call.
// Zero for breakers that are not open.
func (b *Breaker) OpenRemaining() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return 0
	}
	remaining := b.cfg.RecoveryTimeout - b.now().Sub(b.openedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordSuccess records a successful call outcome.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.updateEMA(1)

	switch b.state {
	case StateClosed:
		b.successCount++
		// Consecutive-failure semantics: a success interrupts the run of
		// failures that would otherwise trip the breaker.
		b.failureCount = 0
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed call outcome. Cancelled attempts must not
// be recorded here; they are neutral.
func (b *Breaker) RecordFailure(kind resilience.ErrorKind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.updateEMA(0)
	b.failureCount++

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.failureThreshold {
			b.logger.Warn("failure threshold reached",
				"failures", b.failureCount,
				"threshold", b.failureThreshold,
				"kind", kind.String(),
			)
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		// A single failure during the trial reopens the circuit.
		b.transitionTo(StateOpen)
	}
}

// Tune runs one adaptive-tuning step. It is called from the pool's
// background adaptation loop, never from per-call paths.
//
// A provider with a very high recent success rate gets a lower threshold so
// degradation is detected quickly; a provider that is already noisy gets a
// higher threshold so sporadic failures do not trip the breaker prematurely.
func (b *Breaker) Tune() {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := b.failureThreshold
	switch {
	case b.successRateEMA > b.cfg.TuneHighWater:
		if b.failureThreshold > b.cfg.MinFailureThreshold {
			b.failureThreshold--
		}
	case b.successRateEMA < b.cfg.TuneLowWater:
		if b.failureThreshold < b.cfg.MaxFailureThreshold {
			b.failureThreshold++
		}
	}

	if b.failureThreshold != before {
		b.logger.Debug("failure threshold tuned",
			"from", before,
			"to", b.failureThreshold,
			"success_rate_ema", b.successRateEMA,
		)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a consistent read-only view of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Provider:          b.provider,
		State:             b.state,
		FailureCount:      b.failureCount,
		SuccessCount:      b.successCount,
		FailureThreshold:  b.failureThreshold,
		SuccessRateEMA:    b.successRateEMA,
		HalfOpenSuccesses: b.halfOpenSuccesses,
		OpenedAt:          b.openedAt,
	}
}

// Reset forces the breaker back to closed with counters cleared. The tuned
// failure threshold is kept: a manual reset is not evidence that the
// provider's noise profile changed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// updateEMA folds one outcome (1 success, 0 failure) into the success-rate
// moving average. Must be called with b.mu held.
func (b *Breaker) updateEMA(outcome float64) {
	b.successRateEMA = b.cfg.EMAAlpha*outcome + (1-b.cfg.EMAAlpha)*b.successRateEMA
}

// transitionTo changes state, resets per-state counters, and notifies the
// transition hook. Must be called with b.mu held.
func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	from := b.state
	b.state = newState

	switch newState {
	case StateClosed:
		b.failureCount = 0
		b.successCount = 0
		b.halfOpenSuccesses = 0
	case StateOpen:
		b.openedAt = b.now()
		b.halfOpenSuccesses = 0
	case StateHalfOpen:
		b.halfOpenSuccesses = 0
		b.failureCount = 0
	}

	b.logger.Info("circuit breaker state change",
		"from", from.String(),
		"to", newState.String(),
	)

	if b.onTransition != nil {
		b.onTransition(b.provider, from, newState)
	}
}
