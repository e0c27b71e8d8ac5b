package main

import (
	"context"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/resilience/retry"
)

func TestRetryStrategySelection(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		want     string
		wantErr  bool
	}{
		{"immediate", "immediate", "*retry.Immediate", false},
		{"exponential", "exponential", "*retry.Exponential", false},
		{"empty defaults to exponential", "", "*retry.Exponential", false},
		{"adaptive", "adaptive", "*retry.Adaptive", false},
		{"unknown", "fibonacci", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.RetryConfig{
				Strategy:    tt.strategy,
				MaxAttempts: 3,
				BaseDelay:   time.Second,
				MaxDelay:    30 * time.Second,
			}
			s, err := retryStrategy(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for strategy %q", tt.strategy)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch tt.want {
			case "*retry.Immediate":
				if _, ok := s.(*retry.Immediate); !ok {
					t.Errorf("got %T, want %s", s, tt.want)
				}
			case "*retry.Exponential":
				if _, ok := s.(*retry.Exponential); !ok {
					t.Errorf("got %T, want %s", s, tt.want)
				}
			case "*retry.Adaptive":
				if _, ok := s.(*retry.Adaptive); !ok {
					t.Errorf("got %T, want %s", s, tt.want)
				}
			}
		})
	}
}

func TestDemoProvidersFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = map[string]config.ProviderConfig{
		"openai":    {},
		"anthropic": {},
	}

	providers := demoProviders(cfg)
	if len(providers) != 2 {
		t.Fatalf("expected 2 demo providers, got %d", len(providers))
	}
	// Deterministic order regardless of map iteration.
	if providers[0].name != "anthropic" || providers[1].name != "openai" {
		t.Errorf("expected sorted provider names, got %+v", providers)
	}
	if providers[0].failureRate >= providers[1].failureRate {
		t.Errorf("expected staggered failure rates, got %+v", providers)
	}
}

func TestDemoProvidersDefaultSet(t *testing.T) {
	providers := demoProviders(config.Default())
	if len(providers) != 3 {
		t.Fatalf("expected default trio, got %d", len(providers))
	}
}

func TestSimulateCallRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := simulateCall(ctx, demoProvider{name: "alpha", baseLatency: time.Second})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRootCommandFlags(t *testing.T) {
	if rootCmd.Use != "callisto" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "callisto")
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent --config flag")
	}
	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing persistent --verbose flag")
	}
	if runCmd.Flags().Lookup("demo") == nil {
		t.Error("missing --demo flag on run")
	}
}
