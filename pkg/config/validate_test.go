package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return Default()
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "empty listen address",
			mutate: func(c *Config) { c.Server.ListenAddress = "" },
			field:  "server.listen_address",
		},
		{
			name:   "listen address without port",
			mutate: func(c *Config) { c.Server.ListenAddress = "localhost" },
			field:  "server.listen_address",
		},
		{
			name:   "zero failure threshold",
			mutate: func(c *Config) { c.Resilience.Breaker.FailureThreshold = 0 },
			field:  "resilience.breaker.failure_threshold",
		},
		{
			name: "inverted threshold bounds",
			mutate: func(c *Config) {
				c.Resilience.Breaker.MinFailureThreshold = 10
				c.Resilience.Breaker.MaxFailureThreshold = 5
			},
			field: "resilience.breaker.max_failure_threshold",
		},
		{
			name:   "ema alpha above one",
			mutate: func(c *Config) { c.Resilience.Breaker.EMAAlpha = 1.5 },
			field:  "resilience.breaker.ema_alpha",
		},
		{
			name:   "unknown timeout strategy",
			mutate: func(c *Config) { c.Resilience.Timeout.Strategy = "psychic" },
			field:  "resilience.timeout.strategy",
		},
		{
			name: "max timeout below min",
			mutate: func(c *Config) {
				c.Resilience.Timeout.MinTimeout = 10 * time.Second
				c.Resilience.Timeout.MaxTimeout = 5 * time.Second
			},
			field: "resilience.timeout.max_timeout",
		},
		{
			name:   "quantile out of range",
			mutate: func(c *Config) { c.Resilience.Timeout.Quantile = 1.0 },
			field:  "resilience.timeout.quantile",
		},
		{
			name:   "margin below one",
			mutate: func(c *Config) { c.Resilience.Timeout.MarginFactor = 0.5 },
			field:  "resilience.timeout.margin_factor",
		},
		{
			name:   "unknown retry strategy",
			mutate: func(c *Config) { c.Resilience.Retry.Strategy = "hope" },
			field:  "resilience.retry.strategy",
		},
		{
			name: "retry max delay below base",
			mutate: func(c *Config) {
				c.Resilience.Retry.BaseDelay = time.Minute
				c.Resilience.Retry.MaxDelay = time.Second
			},
			field: "resilience.retry.max_delay",
		},
		{
			name:   "zero health window",
			mutate: func(c *Config) { c.Health.WindowSize = 0 },
			field:  "health.window_size",
		},
		{
			name:   "zero fan out",
			mutate: func(c *Config) { c.Fallback.FanOut = 0 },
			field:  "fallback.fan_out",
		},
		{
			name:   "bad retention schedule",
			mutate: func(c *Config) { c.Journal.RetentionSchedule = "every day at 3" },
			field:  "journal.retention_schedule",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "loud" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			field:  "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledJournalSkipsJournalChecks(t *testing.T) {
	cfg := validConfig()
	disabled := false
	cfg.Journal.Enabled = &disabled
	cfg.Journal.SQLitePath = ""

	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled journal must not require a path: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "a.b", Message: "broken"},
		{Field: "c.d", Message: "also broken"},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "2 errors") {
		t.Errorf("expected error count in message, got %q", msg)
	}
	if !strings.Contains(msg, "a.b: broken") {
		t.Errorf("expected field detail in message, got %q", msg)
	}
}
