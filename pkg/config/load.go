package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use LoadWithEnvOverrides
// for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g., CALLISTO_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every field at its default value,
// suitable for running without a configuration file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format CALLISTO_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("CALLISTO_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("CALLISTO_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("CALLISTO_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("CALLISTO_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Breaker overrides
	envInt("CALLISTO_BREAKER_FAILURE_THRESHOLD", &cfg.Resilience.Breaker.FailureThreshold)
	envInt("CALLISTO_BREAKER_MIN_FAILURE_THRESHOLD", &cfg.Resilience.Breaker.MinFailureThreshold)
	envInt("CALLISTO_BREAKER_MAX_FAILURE_THRESHOLD", &cfg.Resilience.Breaker.MaxFailureThreshold)
	envDuration("CALLISTO_BREAKER_RECOVERY_TIMEOUT", &cfg.Resilience.Breaker.RecoveryTimeout)
	envInt("CALLISTO_BREAKER_SUCCESS_THRESHOLD", &cfg.Resilience.Breaker.SuccessThreshold)
	envFloat("CALLISTO_BREAKER_EMA_ALPHA", &cfg.Resilience.Breaker.EMAAlpha)

	// Timeout overrides
	envString("CALLISTO_TIMEOUT_STRATEGY", &cfg.Resilience.Timeout.Strategy)
	envDuration("CALLISTO_TIMEOUT_INITIAL", &cfg.Resilience.Timeout.InitialTimeout)
	envDuration("CALLISTO_TIMEOUT_MIN", &cfg.Resilience.Timeout.MinTimeout)
	envDuration("CALLISTO_TIMEOUT_MAX", &cfg.Resilience.Timeout.MaxTimeout)
	envInt("CALLISTO_TIMEOUT_WINDOW_SIZE", &cfg.Resilience.Timeout.WindowSize)
	envFloat("CALLISTO_TIMEOUT_MARGIN_FACTOR", &cfg.Resilience.Timeout.MarginFactor)
	envFloat("CALLISTO_TIMEOUT_QUANTILE", &cfg.Resilience.Timeout.Quantile)

	// Retry overrides
	envString("CALLISTO_RETRY_STRATEGY", &cfg.Resilience.Retry.Strategy)
	envInt("CALLISTO_RETRY_MAX_ATTEMPTS", &cfg.Resilience.Retry.MaxAttempts)
	envDuration("CALLISTO_RETRY_BASE_DELAY", &cfg.Resilience.Retry.BaseDelay)
	envDuration("CALLISTO_RETRY_MAX_DELAY", &cfg.Resilience.Retry.MaxDelay)
	envDuration("CALLISTO_RESILIENCE_ADAPTATION_INTERVAL", &cfg.Resilience.AdaptationInterval)

	// Health overrides
	envInt("CALLISTO_HEALTH_WINDOW_SIZE", &cfg.Health.WindowSize)
	envDuration("CALLISTO_HEALTH_LATENCY_BASELINE", &cfg.Health.LatencyBaseline)

	// Fallback overrides
	envInt("CALLISTO_FALLBACK_FAN_OUT", &cfg.Fallback.FanOut)
	envDuration("CALLISTO_FALLBACK_GLOBAL_TIMEOUT", &cfg.Fallback.GlobalTimeout)

	// Journal overrides
	envBoolPtr("CALLISTO_JOURNAL_ENABLED", &cfg.Journal.Enabled)
	envString("CALLISTO_JOURNAL_SQLITE_PATH", &cfg.Journal.SQLitePath)
	envDuration("CALLISTO_JOURNAL_BUSY_TIMEOUT", &cfg.Journal.BusyTimeout)
	envInt("CALLISTO_JOURNAL_RETENTION_DAYS", &cfg.Journal.RetentionDays)
	envString("CALLISTO_JOURNAL_RETENTION_SCHEDULE", &cfg.Journal.RetentionSchedule)

	// Telemetry overrides
	envString("CALLISTO_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("CALLISTO_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBoolPtr("CALLISTO_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("CALLISTO_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBoolPtr(key string, dst **bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}
