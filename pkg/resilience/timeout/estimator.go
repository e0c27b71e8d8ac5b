package timeout

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Strategy selects how the effective timeout is derived from observations.
type Strategy string

const (
	// StrategyFixed keeps the configured initial timeout forever.
	StrategyFixed Strategy = "fixed"

	// StrategyAdaptive tracks an EMA of latency with a success-rate-scaled
	// margin.
	StrategyAdaptive Strategy = "adaptive"

	// StrategyQuantile uses P95 of the rolling window times MarginFactor.
	StrategyQuantile Strategy = "quantile"

	// StrategyPredictive extends the quantile estimate with a trend
	// projection, reacting earlier to steadily rising latency.
	StrategyPredictive Strategy = "predictive"
)

// ParseStrategy parses a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyFixed, StrategyAdaptive, StrategyQuantile, StrategyPredictive:
		return Strategy(s), nil
	case "":
		return StrategyQuantile, nil
	default:
		return "", fmt.Errorf("unknown timeout strategy %q", s)
	}
}

// Config holds estimator tunables. Zero values are replaced by defaults.
type Config struct {
	// Strategy selects the estimation algorithm. Default: quantile.
	Strategy Strategy

	// InitialTimeout is used before enough samples accumulate, and forever
	// under the fixed strategy. Default: 30s.
	InitialTimeout time.Duration

	// MinTimeout is the clamp floor. Default: 1s.
	MinTimeout time.Duration

	// MaxTimeout is the clamp ceiling. Default: 120s.
	MaxTimeout time.Duration

	// WindowSize is the number of latency samples retained. Default: 100.
	WindowSize int

	// MarginFactor multiplies the latency estimate to leave headroom.
	// Default: 1.5.
	MarginFactor float64

	// Quantile is the window percentile used by the quantile and
	// predictive strategies. Default: 0.95.
	Quantile float64

	// EMAAlpha is the smoothing factor for the adaptive strategy's
	// latency and success-rate averages. Default: 0.2.
	EMAAlpha float64
}

// DefaultConfig returns the default estimator configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyQuantile,
		InitialTimeout: 30 * time.Second,
		MinTimeout:     time.Second,
		MaxTimeout:     120 * time.Second,
		WindowSize:     100,
		MarginFactor:   1.5,
		Quantile:       0.95,
		EMAAlpha:       0.2,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.InitialTimeout <= 0 {
		c.InitialTimeout = def.InitialTimeout
	}
	if c.MinTimeout <= 0 {
		c.MinTimeout = def.MinTimeout
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = def.MaxTimeout
	}
	if c.WindowSize <= 0 {
		c.WindowSize = def.WindowSize
	}
	if c.MarginFactor <= 0 {
		c.MarginFactor = def.MarginFactor
	}
	if c.Quantile <= 0 || c.Quantile >= 1 {
		c.Quantile = def.Quantile
	}
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		c.EMAAlpha = def.EMAAlpha
	}
	return c
}

// Estimator derives a per-provider effective timeout from observed
// latencies. Safe for concurrent use.
type Estimator struct {
	mu  sync.Mutex
	cfg Config

	// window is a ring buffer of the most recent latency samples.
	window []time.Duration
	head   int
	count  int

	emaLatency     float64 // nanoseconds
	successRateEMA float64

	effective time.Duration
}

// New creates an estimator with the given configuration.
func New(cfg Config) *Estimator {
	cfg = cfg.withDefaults()
	return &Estimator{
		cfg:            cfg,
		window:         make([]time.Duration, cfg.WindowSize),
		successRateEMA: 1.0,
		effective:      clamp(cfg.InitialTimeout, cfg.MinTimeout, cfg.MaxTimeout),
	}
}

// Current returns the effective timeout to enforce on the next call.
func (e *Estimator) Current() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effective
}

// Observe records a completed call's latency and recomputes the effective
// timeout. Timed-out calls are fed back with success=false so the estimator
// sees the full enforced deadline as a sample.
func (e *Estimator) Observe(latency time.Duration, success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Ring-buffer append, evicting the oldest sample when full.
	e.window[e.head] = latency
	e.head = (e.head + 1) % e.cfg.WindowSize
	if e.count < e.cfg.WindowSize {
		e.count++
	}

	ns := float64(latency.Nanoseconds())
	if e.emaLatency == 0 {
		e.emaLatency = ns
	} else {
		e.emaLatency = e.cfg.EMAAlpha*ns + (1-e.cfg.EMAAlpha)*e.emaLatency
	}
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	e.successRateEMA = e.cfg.EMAAlpha*outcome + (1-e.cfg.EMAAlpha)*e.successRateEMA

	e.recompute()
}

// SampleCount returns how many latency samples the window currently holds.
func (e *Estimator) SampleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// recompute derives the effective timeout per the configured strategy.
// Must be called with e.mu held.
func (e *Estimator) recompute() {
	var raw time.Duration

	switch e.cfg.Strategy {
	case StrategyFixed:
		raw = e.cfg.InitialTimeout

	case StrategyAdaptive:
		// Margin shrinks toward 1.0 as the success rate rises: a reliably
		// fast provider needs less headroom.
		margin := 1.0 + (e.cfg.MarginFactor-1.0)*(1.0-e.successRateEMA*0.5)
		raw = time.Duration(e.emaLatency * margin)

	case StrategyQuantile:
		raw = time.Duration(float64(e.quantile(e.cfg.Quantile)) * e.cfg.MarginFactor)

	case StrategyPredictive:
		base := float64(e.quantile(e.cfg.Quantile))
		raw = time.Duration((base + e.trend()) * e.cfg.MarginFactor)

	default:
		raw = e.cfg.InitialTimeout
	}

	// Before the window warms up, stay on the configured initial value.
	if e.cfg.Strategy != StrategyFixed && e.count < minSamples {
		raw = e.cfg.InitialTimeout
	}

	e.effective = clamp(raw, e.cfg.MinTimeout, e.cfg.MaxTimeout)
}

// minSamples is how many observations are required before the estimator
// trusts its window over the configured initial timeout.
const minSamples = 5

// quantile returns the q-th percentile of the current window.
// Must be called with e.mu held.
func (e *Estimator) quantile(q float64) time.Duration {
	if e.count == 0 {
		return e.cfg.InitialTimeout
	}

	samples := make([]time.Duration, e.count)
	copy(samples, e.window[:e.count])
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	idx := int(float64(e.count-1) * q)
	return samples[idx]
}

// trend estimates the per-window latency slope by comparing the mean of the
// newer half of the window against the older half. A positive value means
// latency is rising. Must be called with e.mu held.
func (e *Estimator) trend() float64 {
	if e.count < minSamples*2 {
		return 0
	}

	// Reconstruct chronological order from the ring buffer.
	ordered := make([]time.Duration, 0, e.count)
	start := e.head - e.count
	if start < 0 {
		start += e.cfg.WindowSize
	}
	for i := 0; i < e.count; i++ {
		ordered = append(ordered, e.window[(start+i)%e.cfg.WindowSize])
	}

	half := e.count / 2
	var older, newer float64
	for i := 0; i < half; i++ {
		older += float64(ordered[i])
	}
	for i := half; i < e.count; i++ {
		newer += float64(ordered[i])
	}
	older /= float64(half)
	newer /= float64(e.count - half)

	delta := newer - older
	if delta < 0 {
		// Falling latency: let the quantile catch up on its own rather
		// than undershooting the timeout.
		return 0
	}
	return delta
}

// clamp bounds d to [min, max].
func clamp(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
