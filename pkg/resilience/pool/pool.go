package pool

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/resilience"
	"mercator-hq/callisto/pkg/resilience/breaker"
	"mercator-hq/callisto/pkg/resilience/timeout"
)

// Config holds pool tunables.
type Config struct {
	// Breaker configures every provider's circuit breaker.
	Breaker breaker.Config

	// Timeout configures every provider's timeout estimator.
	Timeout timeout.Config

	// AdaptationInterval is how often the background loop runs each
	// breaker's tuning step. Default: 30s.
	AdaptationInterval time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Breaker:            breaker.DefaultConfig(),
		Timeout:            timeout.DefaultConfig(),
		AdaptationInterval: 30 * time.Second,
	}
}

// ProviderMetrics is a read-only per-provider view for monitoring.
type ProviderMetrics struct {
	Provider         string
	State            string
	FailureCount     int
	SuccessCount     int
	FailureThreshold int
	SuccessRateEMA   float64
	CurrentTimeout   time.Duration
	LatencySamples   int
}

// entry pairs a provider's breaker with its estimator.
type entry struct {
	breaker   *breaker.Breaker
	estimator *timeout.Estimator
}

// Pool manages one breaker + one estimator per provider and executes work
// under their protection. Entries are created lazily on first reference and
// live for the process lifetime (or until Reset).
type Pool struct {
	cfg        Config
	classifier resilience.Classifier
	logger     *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	breakerOpts []breaker.Option
	sink        resilience.Sink

	stopOnce sync.Once
	done     chan struct{}
	loopDone chan struct{}
}

// Option customizes a Pool.
type Option func(*Pool)

// WithClassifier overrides the error classifier.
func WithClassifier(c resilience.Classifier) Option {
	return func(p *Pool) { p.classifier = c }
}

// WithBreakerOptions forwards options (clock, transition hooks) to every
// breaker the pool creates.
func WithBreakerOptions(opts ...breaker.Option) Option {
	return func(p *Pool) { p.breakerOpts = opts }
}

// WithSink registers a sink receiving every attempt result the pool
// records, including neutral cancellations.
func WithSink(s resilience.Sink) Option {
	return func(p *Pool) { p.sink = s }
}

// WithLogger overrides the pool's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// New creates a pool and starts its background adaptation loop.
func New(cfg Config, opts ...Option) *Pool {
	if cfg.AdaptationInterval <= 0 {
		cfg.AdaptationInterval = 30 * time.Second
	}

	p := &Pool{
		cfg:        cfg,
		classifier: resilience.DefaultClassifier{},
		logger:     slog.Default().With("component", "resilience.pool"),
		entries:    make(map[string]*entry),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.runAdaptationLoop()
	return p
}

// get returns the provider's entry, creating it lazily.
func (p *Pool) get(provider string) *entry {
	p.mu.RLock()
	e, ok := p.entries[provider]
	p.mu.RUnlock()
	if ok {
		return e
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double-check: another goroutine may have created it.
	if e, ok = p.entries[provider]; ok {
		return e
	}
	e = &entry{
		breaker:   breaker.New(provider, p.cfg.Breaker, p.breakerOpts...),
		estimator: timeout.New(p.cfg.Timeout),
	}
	p.entries[provider] = e
	p.logger.Debug("provider entry created", "provider", provider)
	return e
}

// ExecOptions adjust a single Execute call.
type ExecOptions struct {
	// TimeoutOverride replaces the estimator's current timeout for this
	// call only. Zero means use the estimator.
	TimeoutOverride time.Duration
}

// Execute runs work for the provider under breaker protection and an
// enforced deadline. See the generic Call for typed results.
//
// The returned error is one of:
//   - nil on success
//   - *resilience.CircuitOpenError if the breaker rejected the call
//   - *resilience.CancelledError if the caller's context was cancelled
//   - *resilience.TimeoutError if the enforced deadline was exceeded
//   - *resilience.ProviderError wrapping the classified work error
func (p *Pool) Execute(ctx context.Context, provider string, work func(context.Context) (any, error), opts ExecOptions) (any, error) {
	e := p.get(provider)

	// A breaker rejection is not an attempt on the provider: nothing is
	// recorded against its stats.
	if !e.breaker.Allow() {
		return nil, &resilience.CircuitOpenError{Provider: provider, RetryAfter: e.breaker.OpenRemaining()}
	}

	deadline := opts.TimeoutOverride
	if deadline <= 0 {
		deadline = e.estimator.Current()
	}

	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	result, err := work(callCtx)
	latency := time.Since(start)

	// Caller cancellation (a losing race attempt, or the global deadline)
	// is neutral: the provider was not given a fair chance to complete.
	if ctx.Err() != nil {
		p.publish(resilience.AttemptResult{
			Provider:  provider,
			Outcome:   resilience.OutcomeCancelled,
			Latency:   latency,
			Timestamp: time.Now(),
		})
		return nil, &resilience.CancelledError{Provider: provider}
	}

	if err == nil {
		e.breaker.RecordSuccess()
		e.estimator.Observe(latency, true)
		p.publish(resilience.AttemptResult{
			Provider:  provider,
			Outcome:   resilience.OutcomeSuccess,
			Latency:   latency,
			Timestamp: time.Now(),
		})
		return result, nil
	}

	// The enforced deadline fired: record the failure as a timeout with
	// the full deadline as the latency sample.
	if callCtx.Err() == context.DeadlineExceeded {
		e.breaker.RecordFailure(resilience.KindTimeout)
		e.estimator.Observe(deadline, false)
		p.publish(resilience.AttemptResult{
			Provider:  provider,
			Outcome:   resilience.OutcomeFailure,
			Kind:      resilience.KindTimeout,
			Latency:   deadline,
			Timestamp: time.Now(),
		})
		return nil, &resilience.TimeoutError{Provider: provider, Timeout: deadline}
	}

	kind := p.classifier.Classify(err)
	e.breaker.RecordFailure(kind)
	e.estimator.Observe(latency, false)
	p.publish(resilience.AttemptResult{
		Provider:  provider,
		Outcome:   resilience.OutcomeFailure,
		Kind:      kind,
		Latency:   latency,
		Timestamp: time.Now(),
	})
	return nil, &resilience.ProviderError{Provider: provider, Kind: kind, Cause: err}
}

// Call is the typed convenience wrapper around Pool.Execute.
func Call[T any](ctx context.Context, p *Pool, provider string, work func(context.Context) (T, error), opts ExecOptions) (T, error) {
	result, err := p.Execute(ctx, provider, func(ctx context.Context) (any, error) {
		return work(ctx)
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// publish forwards an attempt result to the configured sink, if any.
func (p *Pool) publish(result resilience.AttemptResult) {
	if p.sink != nil {
		p.sink.RecordAttempt(result)
	}
}

// CurrentTimeout returns the deadline the next Execute for the provider
// would enforce.
func (p *Pool) CurrentTimeout(provider string) time.Duration {
	return p.get(provider).estimator.Current()
}

// BreakerState returns the provider's current breaker state name.
func (p *Pool) BreakerState(provider string) string {
	return p.get(provider).breaker.State().String()
}

// Snapshot returns read-only metrics for every known provider, sorted by
// provider name.
func (p *Pool) Snapshot() []ProviderMetrics {
	p.mu.RLock()
	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)
	out := make([]ProviderMetrics, 0, len(names))
	for _, name := range names {
		p.mu.RLock()
		e := p.entries[name]
		p.mu.RUnlock()
		if e == nil {
			continue
		}
		bs := e.breaker.Snapshot()
		out = append(out, ProviderMetrics{
			Provider:         name,
			State:            bs.State.String(),
			FailureCount:     bs.FailureCount,
			SuccessCount:     bs.SuccessCount,
			FailureThreshold: bs.FailureThreshold,
			SuccessRateEMA:   bs.SuccessRateEMA,
			CurrentTimeout:   e.estimator.Current(),
			LatencySamples:   e.estimator.SampleCount(),
		})
	}
	return out
}

// Reset clears a provider's breaker back to closed. Health and latency
// history are kept.
func (p *Pool) Reset(provider string) {
	p.get(provider).breaker.Reset()
}

// Close stops the background adaptation loop. Safe to call more than once.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.done)
		<-p.loopDone
	})
}

// runAdaptationLoop periodically tunes every breaker. Each provider's step
// is isolated: a panic tuning one provider is logged and the loop moves on.
func (p *Pool) runAdaptationLoop() {
	defer close(p.loopDone)

	ticker := time.NewTicker(p.cfg.AdaptationInterval)
	defer ticker.Stop()

	p.logger.Debug("adaptation loop started", "interval", p.cfg.AdaptationInterval)

	for {
		select {
		case <-p.done:
			p.logger.Debug("adaptation loop stopped")
			return
		case <-ticker.C:
			p.adaptAll()
		}
	}
}

// adaptAll runs one tuning pass over all providers.
func (p *Pool) adaptAll() {
	p.mu.RLock()
	providers := make(map[string]*entry, len(p.entries))
	for name, e := range p.entries {
		providers[name] = e
	}
	p.mu.RUnlock()

	for name, e := range providers {
		p.tuneOne(name, e)
	}
}

// tuneOne tunes a single provider's breaker, recovering from panics so one
// provider cannot poison the loop.
func (p *Pool) tuneOne(provider string, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("adaptation step panicked",
				"provider", provider,
				"panic", r,
			)
		}
	}()
	e.breaker.Tune()
}
