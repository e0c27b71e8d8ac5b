package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_ZeroConfig(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("server listen address: got %q", cfg.Server.ListenAddress)
	}
	if cfg.Resilience.Breaker.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("failure threshold: got %d", cfg.Resilience.Breaker.FailureThreshold)
	}
	if cfg.Resilience.Breaker.MinFailureThreshold != DefaultMinFailureThreshold {
		t.Errorf("min failure threshold: got %d", cfg.Resilience.Breaker.MinFailureThreshold)
	}
	if cfg.Resilience.Breaker.MaxFailureThreshold != DefaultMaxFailureThreshold {
		t.Errorf("max failure threshold: got %d", cfg.Resilience.Breaker.MaxFailureThreshold)
	}
	if cfg.Resilience.Timeout.MinTimeout != time.Second || cfg.Resilience.Timeout.MaxTimeout != 120*time.Second {
		t.Errorf("timeout clamps: got [%s, %s]", cfg.Resilience.Timeout.MinTimeout, cfg.Resilience.Timeout.MaxTimeout)
	}
	if cfg.Resilience.Retry.Strategy != DefaultRetryStrategy {
		t.Errorf("retry strategy: got %q", cfg.Resilience.Retry.Strategy)
	}
	if cfg.Health.WindowSize != DefaultHealthWindow {
		t.Errorf("health window: got %d", cfg.Health.WindowSize)
	}
	if cfg.Fallback.FanOut != DefaultFanOut {
		t.Errorf("fan out: got %d", cfg.Fallback.FanOut)
	}
	if cfg.Journal.RetentionSchedule != DefaultRetentionSchedule {
		t.Errorf("retention schedule: got %q", cfg.Journal.RetentionSchedule)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel || cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
		t.Errorf("logging defaults: got %+v", cfg.Telemetry.Logging)
	}
	if cfg.Providers == nil {
		t.Error("providers map must be initialized")
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	first := cfg

	ApplyDefaults(&cfg)
	if cfg.Resilience != first.Resilience {
		t.Error("second ApplyDefaults changed resilience settings")
	}
	if cfg.Server != first.Server {
		t.Error("second ApplyDefaults changed server settings")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Resilience.Breaker.FailureThreshold = 12
	cfg.Resilience.Timeout.Strategy = "fixed"
	cfg.Fallback.FanOut = 4

	ApplyDefaults(&cfg)

	if cfg.Resilience.Breaker.FailureThreshold != 12 {
		t.Errorf("explicit threshold overwritten: %d", cfg.Resilience.Breaker.FailureThreshold)
	}
	if cfg.Resilience.Timeout.Strategy != "fixed" {
		t.Errorf("explicit strategy overwritten: %q", cfg.Resilience.Timeout.Strategy)
	}
	if cfg.Fallback.FanOut != 4 {
		t.Errorf("explicit fan-out overwritten: %d", cfg.Fallback.FanOut)
	}
}
