package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "resilience.breaker.failure_threshold").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is
// valid. All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateResilience(&cfg.Resilience)...)
	errs = append(errs, validateHealth(&cfg.Health)...)
	errs = append(errs, validateFallback(&cfg.Fallback)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}
	return errs
}

func validateResilience(cfg *ResilienceConfig) []FieldError {
	var errs []FieldError

	b := &cfg.Breaker
	if b.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.breaker.failure_threshold",
			Message: "must be at least 1",
		})
	}
	if b.MinFailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.breaker.min_failure_threshold",
			Message: "must be at least 1",
		})
	}
	if b.MaxFailureThreshold < b.MinFailureThreshold {
		errs = append(errs, FieldError{
			Field:   "resilience.breaker.max_failure_threshold",
			Message: "must be greater than or equal to min_failure_threshold",
		})
	}
	if b.RecoveryTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.breaker.recovery_timeout",
			Message: "must be positive",
		})
	}
	if b.SuccessThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.breaker.success_threshold",
			Message: "must be at least 1",
		})
	}
	if b.EMAAlpha <= 0 || b.EMAAlpha > 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.breaker.ema_alpha",
			Message: "must be in (0, 1]",
		})
	}

	to := &cfg.Timeout
	switch to.Strategy {
	case "fixed", "adaptive", "quantile", "predictive":
	default:
		errs = append(errs, FieldError{
			Field:   "resilience.timeout.strategy",
			Message: fmt.Sprintf("unknown strategy %q (must be fixed, adaptive, quantile, or predictive)", to.Strategy),
		})
	}
	if to.MinTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.timeout.min_timeout",
			Message: "must be positive",
		})
	}
	if to.MaxTimeout < to.MinTimeout {
		errs = append(errs, FieldError{
			Field:   "resilience.timeout.max_timeout",
			Message: "must be greater than or equal to min_timeout",
		})
	}
	if to.WindowSize < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.timeout.window_size",
			Message: "must be at least 1",
		})
	}
	if to.MarginFactor < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.timeout.margin_factor",
			Message: "must be at least 1",
		})
	}
	if to.Quantile <= 0 || to.Quantile >= 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.timeout.quantile",
			Message: "must be in (0, 1)",
		})
	}

	r := &cfg.Retry
	switch r.Strategy {
	case "immediate", "exponential", "adaptive":
	default:
		errs = append(errs, FieldError{
			Field:   "resilience.retry.strategy",
			Message: fmt.Sprintf("unknown strategy %q (must be immediate, exponential, or adaptive)", r.Strategy),
		})
	}
	if r.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.max_attempts",
			Message: "must be at least 1",
		})
	}
	if r.BaseDelay <= 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.base_delay",
			Message: "must be positive",
		})
	}
	if r.MaxDelay < r.BaseDelay {
		errs = append(errs, FieldError{
			Field:   "resilience.retry.max_delay",
			Message: "must be greater than or equal to base_delay",
		})
	}

	if cfg.AdaptationInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "resilience.adaptation_interval",
			Message: "must be positive",
		})
	}
	return errs
}

func validateHealth(cfg *HealthConfig) []FieldError {
	var errs []FieldError

	if cfg.WindowSize < 1 {
		errs = append(errs, FieldError{
			Field:   "health.window_size",
			Message: "must be at least 1",
		})
	}
	if cfg.LatencyBaseline <= 0 {
		errs = append(errs, FieldError{
			Field:   "health.latency_baseline",
			Message: "must be positive",
		})
	}
	return errs
}

func validateFallback(cfg *FallbackConfig) []FieldError {
	var errs []FieldError

	if cfg.FanOut < 1 {
		errs = append(errs, FieldError{
			Field:   "fallback.fan_out",
			Message: "must be at least 1",
		})
	}
	if cfg.GlobalTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "fallback.global_timeout",
			Message: "must be positive",
		})
	}
	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if !cfg.IsEnabled() {
		return nil
	}
	if cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite_path",
			Message: "path is required when the journal is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention_days",
			Message: "must not be negative",
		})
	}
	if cfg.RetentionSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RetentionSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be json or text)", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.IsEnabled() && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}
	return errs
}
