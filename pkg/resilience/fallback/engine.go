package fallback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/resilience"
	"mercator-hq/callisto/pkg/resilience/health"
	"mercator-hq/callisto/pkg/resilience/pool"
	"mercator-hq/callisto/pkg/resilience/retry"
)

// Config holds engine tunables.
type Config struct {
	// FanOut is how many ranked candidates race simultaneously. The
	// remainder launch only as earlier attempts fail. Default: 2.
	FanOut int

	// GlobalTimeout bounds the whole race, independent of per-provider
	// timeouts. Default: 30s.
	GlobalTimeout time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		FanOut:        2,
		GlobalTimeout: 30 * time.Second,
	}
}

// Metrics describes a finished race.
type Metrics struct {
	// RaceID uniquely identifies the race for log correlation.
	RaceID string

	// Provider is the winning provider (empty on failure).
	Provider string

	// Attempts is the total number of provider attempts made, retries
	// included.
	Attempts int

	// Latency is the caller-visible race duration.
	Latency time.Duration

	// Attempted lists providers that were started, in launch order.
	Attempted []string
}

// Result carries a winning value and its race metadata.
type Result[T any] struct {
	Value    T
	Provider string
	Metrics  Metrics
}

// Engine races work across ranked provider candidates.
type Engine struct {
	cfg      Config
	pool     *pool.Pool
	registry *health.Registry
	retry    retry.Strategy
	logger   *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRetryStrategy overrides the per-attempt retry strategy.
func WithRetryStrategy(s retry.Strategy) Option {
	return func(e *Engine) { e.retry = s }
}

// WithLogger overrides the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates a fallback engine on top of a breaker pool and health
// registry.
func New(cfg Config, p *pool.Pool, registry *health.Registry, opts ...Option) *Engine {
	if cfg.FanOut <= 0 {
		cfg.FanOut = 2
	}
	if cfg.GlobalTimeout <= 0 {
		cfg.GlobalTimeout = 30 * time.Second
	}

	e := &Engine{
		cfg:      cfg,
		pool:     p,
		registry: registry,
		retry:    retry.NewExponential(3, time.Second, 30*time.Second),
		logger:   slog.Default().With("component", "resilience.fallback"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// attemptOutcome is one provider's final result within a race.
type attemptOutcome struct {
	provider string
	value    any
	err      error
	attempts int
}

// Run races the candidates and returns the first successful result. See
// the package documentation for the full contract.
func Run[T any](ctx context.Context, e *Engine, candidates []string, work func(ctx context.Context, provider string) (T, error)) (Result[T], error) {
	erased := func(ctx context.Context, provider string) (any, error) {
		return work(ctx, provider)
	}

	value, provider, metrics, err := e.run(ctx, candidates, erased)
	if err != nil {
		return Result[T]{Metrics: metrics}, err
	}
	return Result[T]{
		Value:    value.(T),
		Provider: provider,
		Metrics:  metrics,
	}, nil
}

// run is the untyped race implementation.
func (e *Engine) run(ctx context.Context, candidates []string, work func(context.Context, string) (any, error)) (any, string, Metrics, error) {
	metrics := Metrics{RaceID: uuid.New().String()}
	start := time.Now()

	if len(candidates) == 0 {
		return nil, "", metrics, resilience.ErrNoCandidates
	}

	ranked := e.registry.Rank(candidates)
	if len(ranked) == 0 {
		// Every candidate is disabled.
		return nil, "", metrics, resilience.ErrNoCandidates
	}

	logger := e.logger.With("race_id", metrics.RaceID)
	logger.Debug("race starting",
		"candidates", len(candidates),
		"ranked", len(ranked),
		"fan_out", e.cfg.FanOut,
	)

	raceCtx, cancel := context.WithTimeout(ctx, e.cfg.GlobalTimeout)
	defer cancel()

	// Buffered so losing attempts can report and exit after the race is
	// decided.
	results := make(chan attemptOutcome, len(ranked))

	launched := 0
	inFlight := 0
	launch := func() {
		if launched >= len(ranked) {
			return
		}
		provider := ranked[launched]
		launched++
		inFlight++
		metrics.Attempted = append(metrics.Attempted, provider)
		go e.attempt(raceCtx, provider, work, results)
	}

	for i := 0; i < e.cfg.FanOut && launched < len(ranked); i++ {
		launch()
	}

	lastErrors := make(map[string]error, len(ranked))
	for inFlight > 0 {
		select {
		case out := <-results:
			inFlight--
			metrics.Attempts += out.attempts

			if out.err == nil {
				// Winner: cancel the losers and return.
				cancel()
				metrics.Provider = out.provider
				metrics.Latency = time.Since(start)
				logger.Info("race succeeded",
					"provider", out.provider,
					"attempts", metrics.Attempts,
					"latency", metrics.Latency,
				)
				return out.value, out.provider, metrics, nil
			}

			lastErrors[out.provider] = out.err
			logger.Debug("candidate exhausted",
				"provider", out.provider,
				"error", out.err,
			)
			launch()

		case <-raceCtx.Done():
			// Global deadline (or caller cancellation): in-flight
			// attempts observe the same context and unwind as neutral
			// cancellations on their own.
			metrics.Latency = time.Since(start)
			logger.Warn("race deadline elapsed",
				"attempted", len(metrics.Attempted),
				"latency", metrics.Latency,
			)
			return nil, "", metrics, e.aggregate(metrics.Attempted, lastErrors, raceCtx)
		}
	}

	metrics.Latency = time.Since(start)
	logger.Warn("race failed, all candidates exhausted",
		"attempted", len(metrics.Attempted),
		"latency", metrics.Latency,
	)
	return nil, "", metrics, e.aggregate(metrics.Attempted, lastErrors, raceCtx)
}

// aggregate builds the single error surfaced to callers.
func (e *Engine) aggregate(attempted []string, lastErrors map[string]error, raceCtx context.Context) error {
	agg := &AggregateError{
		AggregateError: resilience.AggregateError{
			LastErrors: lastErrors,
			Attempted:  attempted,
		},
	}
	if err := raceCtx.Err(); err != nil {
		agg.DeadlineExceeded = errors.Is(err, context.DeadlineExceeded)
	}
	return agg
}

// AggregateError extends the shared aggregate error with race context.
type AggregateError struct {
	resilience.AggregateError

	// DeadlineExceeded reports whether the global race deadline, rather
	// than candidate exhaustion, ended the race.
	DeadlineExceeded bool
}

// attempt runs one provider through the retry loop until success, final
// failure, or cancellation, then reports on results.
func (e *Engine) attempt(ctx context.Context, provider string, work func(context.Context, string) (any, error), results chan<- attemptOutcome) {
	var (
		lastErr  error
		lastKind resilience.ErrorKind
		attempts int
	)

	for attemptNo := 1; ; attemptNo++ {
		if ctx.Err() != nil {
			results <- attemptOutcome{provider: provider, err: e.finalErr(provider, lastErr), attempts: attempts}
			return
		}

		attempts++
		value, err := e.pool.Execute(ctx, provider, func(ctx context.Context) (any, error) {
			return work(ctx, provider)
		}, pool.ExecOptions{})

		if err == nil {
			e.reportRetryFeedback(attemptNo, lastKind, true)
			results <- attemptOutcome{provider: provider, value: value, attempts: attempts}
			return
		}

		lastErr = err

		// A breaker rejection is a free "skip this provider now" signal;
		// retrying the same provider would be rejected again.
		if errors.Is(err, resilience.ErrCircuitOpen) {
			results <- attemptOutcome{provider: provider, err: err, attempts: attempts}
			return
		}

		// Cancellation ends the attempt without a retry decision and
		// without feedback to the retry strategy.
		var cancelled *resilience.CancelledError
		if errors.As(err, &cancelled) {
			results <- attemptOutcome{provider: provider, err: err, attempts: attempts}
			return
		}

		e.reportRetryFeedback(attemptNo, lastKind, false)
		lastKind = errorKind(err)
		decision := e.retry.ShouldRetry(lastKind, attemptNo)
		if !decision.Retry {
			results <- attemptOutcome{provider: provider, err: err, attempts: attempts}
			return
		}

		if decision.Delay > 0 {
			select {
			case <-ctx.Done():
				// No further retries once the race is decided.
				results <- attemptOutcome{provider: provider, err: e.finalErr(provider, lastErr), attempts: attempts}
				return
			case <-time.After(decision.Delay):
			}
		}
	}
}

// reportRetryFeedback informs the retry strategy whether a retried attempt
// recovered. First attempts carry no feedback.
func (e *Engine) reportRetryFeedback(attemptNo int, kind resilience.ErrorKind, success bool) {
	if attemptNo <= 1 || kind == "" {
		return
	}
	e.retry.RecordRetryResult(kind, success)
}

// finalErr picks the error reported for an attempt ended by cancellation:
// the last real failure if one happened, else a neutral cancellation.
func (e *Engine) finalErr(provider string, lastErr error) error {
	if lastErr != nil {
		return lastErr
	}
	return &resilience.CancelledError{Provider: provider}
}

// errorKind extracts the classification from a pool error.
func errorKind(err error) resilience.ErrorKind {
	var pe *resilience.ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, resilience.ErrTimeout) {
		return resilience.KindTimeout
	}
	return resilience.KindUnknown
}
