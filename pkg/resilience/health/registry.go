package health

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/resilience"
)

// Config holds registry tunables. Zero values are replaced by defaults.
type Config struct {
	// WindowSize is the number of outcomes retained per provider.
	// Default: 50.
	WindowSize int

	// Thresholds are the tier success-rate cutoffs.
	Thresholds Thresholds

	// LatencyBaseline is the P95 latency a provider must stay at or below
	// to qualify as excellent. Default: 2s.
	LatencyBaseline time.Duration
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:      50,
		Thresholds:      DefaultThresholds(),
		LatencyBaseline: 2 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = def.WindowSize
	}
	c.Thresholds = c.Thresholds.withDefaults()
	if c.LatencyBaseline <= 0 {
		c.LatencyBaseline = def.LatencyBaseline
	}
	return c
}

// Snapshot is a read-only view of one provider's health.
type Snapshot struct {
	Provider    string
	Tier        Tier
	Attempts    int
	Successes   int
	Failures    int
	SuccessRate float64
	P95Latency  time.Duration
	MeanLatency time.Duration
	Enabled     bool
	LastUpdated time.Time
}

// record is one outcome in a provider's rolling window.
type record struct {
	success bool
	latency time.Duration
}

// providerHealth is the per-provider rolling window plus derived tier.
// Each provider has its own lock so providers never contend.
type providerHealth struct {
	mu sync.Mutex

	window    []record
	head      int
	count     int
	successes int

	tier        Tier
	lastUpdated time.Time
	enabled     bool
}

// Registry scores providers from recent outcomes and ranks candidates for
// the fallback engine.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	providers map[string]*providerHealth

	// onTierChange is invoked outside the provider lock when a provider's
	// tier moves.
	onTierChange func(provider string, from, to Tier)
}

// Option customizes a Registry.
type Option func(*Registry)

// WithTierChangeFunc registers a hook invoked on every tier change.
func WithTierChangeFunc(fn func(provider string, from, to Tier)) Option {
	return func(r *Registry) { r.onTierChange = fn }
}

// WithLogger overrides the registry's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a health registry.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		cfg:       cfg.withDefaults(),
		logger:    slog.Default().With("component", "resilience.health"),
		providers: make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// get returns the provider's health record, creating it lazily.
func (r *Registry) get(provider string) *providerHealth {
	r.mu.RLock()
	ph, ok := r.providers[provider]
	r.mu.RUnlock()
	if ok {
		return ph
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check: another goroutine may have created it.
	if ph, ok = r.providers[provider]; ok {
		return ph
	}
	ph = &providerHealth{
		window:  make([]record, r.cfg.WindowSize),
		tier:    TierGood, // neutral prior until outcomes arrive
		enabled: true,
	}
	r.providers[provider] = ph
	return ph
}

// Record feeds one completed attempt into the provider's window and
// recomputes its tier. Cancelled attempts are neutral and must not be
// recorded.
func (r *Registry) Record(provider string, success bool, latency time.Duration) {
	ph := r.get(provider)

	ph.mu.Lock()
	if ph.count == len(ph.window) {
		if ph.window[ph.head].success {
			ph.successes--
		}
	} else {
		ph.count++
	}
	ph.window[ph.head] = record{success: success, latency: latency}
	if success {
		ph.successes++
	}
	ph.head = (ph.head + 1) % len(ph.window)
	ph.lastUpdated = time.Now()

	from := ph.tier
	to := r.computeTier(ph)
	ph.tier = to
	ph.mu.Unlock()

	if from != to {
		r.logger.Info("provider health tier change",
			"provider", provider,
			"from", from.String(),
			"to", to.String(),
		)
		if r.onTierChange != nil {
			r.onTierChange(provider, from, to)
		}
	}
}

// RecordAttempt implements resilience.Sink, mapping neutral cancellations
// away before recording.
func (r *Registry) RecordAttempt(result resilience.AttemptResult) {
	if result.Outcome == resilience.OutcomeCancelled {
		return
	}
	r.Record(result.Provider, result.Outcome == resilience.OutcomeSuccess, result.Latency)
}

// computeTier derives the tier from the window. Must be called with ph.mu
// held.
func (r *Registry) computeTier(ph *providerHealth) Tier {
	if ph.count == 0 {
		return TierGood
	}

	rate := float64(ph.successes) / float64(ph.count)
	th := r.cfg.Thresholds

	switch {
	case rate >= th.Excellent && p95Locked(ph) <= r.cfg.LatencyBaseline:
		return TierExcellent
	case rate >= th.Good:
		return TierGood
	case rate >= th.Fair:
		return TierFair
	case rate >= th.Poor:
		return TierPoor
	default:
		return TierUnhealthy
	}
}

// Tier returns the provider's current health tier. Unknown providers get
// the neutral prior.
func (r *Registry) Tier(provider string) Tier {
	r.mu.RLock()
	ph, ok := r.providers[provider]
	r.mu.RUnlock()
	if !ok {
		return TierGood
	}

	ph.mu.Lock()
	defer ph.mu.Unlock()
	return ph.tier
}

// SetEnabled flips a provider's runtime enable flag. Disabled providers are
// excluded from ranking but keep their breaker and health state.
func (r *Registry) SetEnabled(provider string, enabled bool) {
	ph := r.get(provider)
	ph.mu.Lock()
	changed := ph.enabled != enabled
	ph.enabled = enabled
	ph.mu.Unlock()

	if changed {
		r.logger.Info("provider enable flag changed", "provider", provider, "enabled", enabled)
	}
}

// Rank orders candidates ascending by (tier, estimated latency), excluding
// disabled and unhealthy providers. If filtering would leave nothing, the
// least-bad enabled candidate is kept as a last resort.
func (r *Registry) Rank(candidates []string) []string {
	type scored struct {
		provider string
		tier     Tier
		latency  time.Duration
		enabled  bool
	}

	all := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		snap := r.SnapshotProvider(c)
		all = append(all, scored{
			provider: c,
			tier:     snap.Tier,
			latency:  snap.MeanLatency,
			enabled:  snap.Enabled,
		})
	}

	eligible := make([]scored, 0, len(all))
	lastResort := make([]scored, 0, len(all))
	for _, s := range all {
		if !s.enabled {
			continue
		}
		if s.tier == TierUnhealthy {
			lastResort = append(lastResort, s)
			continue
		}
		eligible = append(eligible, s)
	}

	// All candidates unhealthy: retry the least bad rather than fail with
	// no attempt at all.
	if len(eligible) == 0 {
		eligible = lastResort
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].tier != eligible[j].tier {
			return eligible[i].tier < eligible[j].tier
		}
		return eligible[i].latency < eligible[j].latency
	})

	ranked := make([]string, len(eligible))
	for i, s := range eligible {
		ranked[i] = s.provider
	}
	return ranked
}

// SnapshotProvider returns a read-only view of one provider's health.
// Unknown providers get an enabled, good-tier snapshot.
func (r *Registry) SnapshotProvider(provider string) Snapshot {
	r.mu.RLock()
	ph, ok := r.providers[provider]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{Provider: provider, Tier: TierGood, Enabled: true}
	}

	ph.mu.Lock()
	defer ph.mu.Unlock()

	snap := Snapshot{
		Provider:    provider,
		Tier:        ph.tier,
		Attempts:    ph.count,
		Successes:   ph.successes,
		Failures:    ph.count - ph.successes,
		Enabled:     ph.enabled,
		LastUpdated: ph.lastUpdated,
	}
	if ph.count > 0 {
		snap.SuccessRate = float64(ph.successes) / float64(ph.count)
		snap.P95Latency = p95Locked(ph)
		snap.MeanLatency = meanLocked(ph)
	}
	return snap
}

// Snapshot returns views of every known provider, sorted by name.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	snaps := make([]Snapshot, 0, len(names))
	for _, name := range names {
		snaps = append(snaps, r.SnapshotProvider(name))
	}
	return snaps
}

// p95Locked returns the window's P95 latency. Must be called with ph.mu
// held.
func p95Locked(ph *providerHealth) time.Duration {
	if ph.count == 0 {
		return 0
	}
	samples := make([]time.Duration, ph.count)
	for i := 0; i < ph.count; i++ {
		samples[i] = ph.window[i].latency
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return samples[int(float64(ph.count-1)*0.95)]
}

// meanLocked returns the window's mean latency. Must be called with ph.mu
// held.
func meanLocked(ph *providerHealth) time.Duration {
	if ph.count == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < ph.count; i++ {
		total += ph.window[i].latency
	}
	return total / time.Duration(ph.count)
}
