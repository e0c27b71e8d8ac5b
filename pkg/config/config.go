package config

import "time"

// Config is the root configuration structure for Callisto.
// It contains all configuration sections for the dispatch core: provider
// declarations, resilience tuning, health tracking, fallback racing,
// outcome journaling, and telemetry.
type Config struct {
	// Server contains the admin HTTP server configuration including
	// listen address and shutdown behavior.
	Server ServerConfig `yaml:"server"`

	// Providers contains the declared provider candidates. Keys are
	// provider names (e.g., "openai", "anthropic").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Resilience contains circuit breaker, timeout estimation, and retry
	// configuration shared by every provider.
	Resilience ResilienceConfig `yaml:"resilience"`

	// Health contains configuration for the provider health registry.
	Health HealthConfig `yaml:"health"`

	// Fallback contains configuration for the first-success-wins racing
	// engine.
	Fallback FallbackConfig `yaml:"fallback"`

	// Journal contains configuration for the durable outcome journal.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the admin HTTP server, which
// serves the metrics endpoint and the state snapshot endpoint.
type ServerConfig struct {
	// ListenAddress is the address and port for the admin server.
	// Format: "host:port".
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig contains configuration for a single provider candidate.
type ProviderConfig struct {
	// Enabled controls whether the provider participates in races.
	// Disabled providers are excluded from ranking entirely.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Weight biases ranking among providers of the same health tier.
	// Higher weights sort earlier. Zero means no bias.
	Weight int `yaml:"weight"`
}

// IsEnabled reports whether the provider participates in races. Unset
// means enabled.
func (c ProviderConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ResilienceConfig groups the per-provider protection settings.
type ResilienceConfig struct {
	// Breaker contains circuit breaker configuration.
	Breaker BreakerConfig `yaml:"breaker"`

	// Timeout contains adaptive timeout estimation configuration.
	Timeout TimeoutConfig `yaml:"timeout"`

	// Retry contains retry strategy configuration.
	Retry RetryConfig `yaml:"retry"`

	// AdaptationInterval is how often breaker thresholds are re-tuned
	// from observed success rates.
	// Default: 30s
	AdaptationInterval time.Duration `yaml:"adaptation_interval"`
}

// BreakerConfig contains circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens a
	// closed breaker. The adaptive tuner adjusts it at runtime within
	// [MinFailureThreshold, MaxFailureThreshold].
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// MinFailureThreshold is the tuner's floor.
	// Default: 3
	MinFailureThreshold int `yaml:"min_failure_threshold"`

	// MaxFailureThreshold is the tuner's ceiling.
	// Default: 20
	MaxFailureThreshold int `yaml:"max_failure_threshold"`

	// RecoveryTimeout is how long an open breaker waits before admitting
	// a trial call.
	// Default: 60s
	RecoveryTimeout time.Duration `yaml:"recovery_timeout"`

	// SuccessThreshold is the consecutive successes required in half-open
	// state to close the breaker.
	// Default: 3
	SuccessThreshold int `yaml:"success_threshold"`

	// EMAAlpha is the smoothing factor of the success-rate EMA driving
	// threshold adaptation. Must be in (0, 1].
	// Default: 0.1
	EMAAlpha float64 `yaml:"ema_alpha"`
}

// TimeoutConfig contains adaptive timeout estimation configuration.
type TimeoutConfig struct {
	// Strategy selects the estimation algorithm. One of "fixed",
	// "adaptive", "quantile", "predictive".
	// Default: "quantile"
	Strategy string `yaml:"strategy"`

	// InitialTimeout is the deadline enforced before enough latency
	// samples have been observed.
	// Default: 30s
	InitialTimeout time.Duration `yaml:"initial_timeout"`

	// MinTimeout is the lower clamp on estimated timeouts.
	// Default: 1s
	MinTimeout time.Duration `yaml:"min_timeout"`

	// MaxTimeout is the upper clamp on estimated timeouts.
	// Default: 120s
	MaxTimeout time.Duration `yaml:"max_timeout"`

	// WindowSize is the number of latency samples retained per provider.
	// Default: 100
	WindowSize int `yaml:"window_size"`

	// MarginFactor is the safety multiplier applied to the estimated
	// latency.
	// Default: 1.5
	MarginFactor float64 `yaml:"margin_factor"`

	// Quantile is the latency percentile used by the quantile and
	// predictive strategies. Must be in (0, 1).
	// Default: 0.95
	Quantile float64 `yaml:"quantile"`
}

// RetryConfig contains retry strategy configuration.
type RetryConfig struct {
	// Strategy selects the retry algorithm. One of "immediate",
	// "exponential", "adaptive".
	// Default: "exponential"
	Strategy string `yaml:"strategy"`

	// MaxAttempts is the attempt budget per provider, first try included.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the first backoff delay of the exponential schedule.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff schedule.
	// Default: 30s
	MaxDelay time.Duration `yaml:"max_delay"`
}

// HealthConfig contains provider health registry configuration.
type HealthConfig struct {
	// WindowSize is the number of recent outcomes scored per provider.
	// Default: 50
	WindowSize int `yaml:"window_size"`

	// LatencyBaseline is the P95 latency a provider must stay at or
	// below to qualify for the top health tier.
	// Default: 2s
	LatencyBaseline time.Duration `yaml:"latency_baseline"`
}

// FallbackConfig contains racing engine configuration.
type FallbackConfig struct {
	// FanOut is how many ranked candidates race simultaneously.
	// Default: 2
	FanOut int `yaml:"fan_out"`

	// GlobalTimeout bounds an entire race including all retries and
	// fallbacks.
	// Default: 30s
	GlobalTimeout time.Duration `yaml:"global_timeout"`
}

// JournalConfig contains outcome journal configuration.
type JournalConfig struct {
	// Enabled controls whether attempt outcomes are persisted.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// SQLitePath is the journal database file path.
	// Default: "data/journal.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays is how long journal rows are kept. Zero disables
	// pruning.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// RetentionSchedule is the cron expression for the pruning job.
	// Default: "0 3 * * *"
	RetentionSchedule string `yaml:"retention_schedule"`
}

// IsEnabled reports whether outcome journaling is on. Unset means enabled.
func (c JournalConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level. One of "debug", "info", "warn",
	// "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format. One of "json", "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path the metrics handler is mounted at.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// IsEnabled reports whether the metrics endpoint is served. Unset means
// enabled.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
