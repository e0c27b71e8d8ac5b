package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9090"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Breaker defaults
	DefaultFailureThreshold    = 5
	DefaultMinFailureThreshold = 3
	DefaultMaxFailureThreshold = 20
	DefaultRecoveryTimeout     = 60 * time.Second
	DefaultSuccessThreshold    = 3
	DefaultEMAAlpha            = 0.1

	// Timeout defaults
	DefaultTimeoutStrategy = "quantile"
	DefaultInitialTimeout  = 30 * time.Second
	DefaultMinTimeout      = 1 * time.Second
	DefaultMaxTimeout      = 120 * time.Second
	DefaultTimeoutWindow   = 100
	DefaultMarginFactor    = 1.5
	DefaultQuantile        = 0.95

	// Retry defaults
	DefaultRetryStrategy    = "exponential"
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 1 * time.Second
	DefaultRetryMaxDelay    = 30 * time.Second

	// Adaptation defaults
	DefaultAdaptationInterval = 30 * time.Second

	// Health defaults
	DefaultHealthWindow    = 50
	DefaultLatencyBaseline = 2 * time.Second

	// Fallback defaults
	DefaultFanOut        = 2
	DefaultGlobalTimeout = 30 * time.Second

	// Journal defaults
	DefaultJournalEnabled     = true
	DefaultJournalSQLitePath  = "data/journal.db"
	DefaultJournalBusyTimeout = 5 * time.Second
	DefaultRetentionDays      = 30
	DefaultRetentionSchedule  = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyProviderDefaults(cfg)
	applyResilienceDefaults(&cfg.Resilience)
	applyHealthDefaults(&cfg.Health)
	applyFallbackDefaults(&cfg.Fallback)
	applyJournalDefaults(&cfg.Journal)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyProviderDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for name, p := range cfg.Providers {
		if p.Enabled == nil {
			enabled := true
			p.Enabled = &enabled
			cfg.Providers[name] = p
		}
	}
}

func applyResilienceDefaults(cfg *ResilienceConfig) {
	b := &cfg.Breaker
	if b.FailureThreshold == 0 {
		b.FailureThreshold = DefaultFailureThreshold
	}
	if b.MinFailureThreshold == 0 {
		b.MinFailureThreshold = DefaultMinFailureThreshold
	}
	if b.MaxFailureThreshold == 0 {
		b.MaxFailureThreshold = DefaultMaxFailureThreshold
	}
	if b.RecoveryTimeout == 0 {
		b.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if b.SuccessThreshold == 0 {
		b.SuccessThreshold = DefaultSuccessThreshold
	}
	if b.EMAAlpha == 0 {
		b.EMAAlpha = DefaultEMAAlpha
	}

	to := &cfg.Timeout
	if to.Strategy == "" {
		to.Strategy = DefaultTimeoutStrategy
	}
	if to.InitialTimeout == 0 {
		to.InitialTimeout = DefaultInitialTimeout
	}
	if to.MinTimeout == 0 {
		to.MinTimeout = DefaultMinTimeout
	}
	if to.MaxTimeout == 0 {
		to.MaxTimeout = DefaultMaxTimeout
	}
	if to.WindowSize == 0 {
		to.WindowSize = DefaultTimeoutWindow
	}
	if to.MarginFactor == 0 {
		to.MarginFactor = DefaultMarginFactor
	}
	if to.Quantile == 0 {
		to.Quantile = DefaultQuantile
	}

	r := &cfg.Retry
	if r.Strategy == "" {
		r.Strategy = DefaultRetryStrategy
	}
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultRetryMaxAttempts
	}
	if r.BaseDelay == 0 {
		r.BaseDelay = DefaultRetryBaseDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = DefaultRetryMaxDelay
	}

	if cfg.AdaptationInterval == 0 {
		cfg.AdaptationInterval = DefaultAdaptationInterval
	}
}

func applyHealthDefaults(cfg *HealthConfig) {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultHealthWindow
	}
	if cfg.LatencyBaseline == 0 {
		cfg.LatencyBaseline = DefaultLatencyBaseline
	}
}

func applyFallbackDefaults(cfg *FallbackConfig) {
	if cfg.FanOut == 0 {
		cfg.FanOut = DefaultFanOut
	}
	if cfg.GlobalTimeout == 0 {
		cfg.GlobalTimeout = DefaultGlobalTimeout
	}
}

func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = DefaultJournalSQLitePath
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultJournalBusyTimeout
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = DefaultRetentionSchedule
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
