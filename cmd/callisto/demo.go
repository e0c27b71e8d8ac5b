package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/resilience"
	"mercator-hq/callisto/pkg/resilience/fallback"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// demoProvider is a synthetic upstream used by --demo to drive the race
// engine without real provider credentials.
type demoProvider struct {
	name        string
	baseLatency time.Duration
	failureRate float64
}

// demoProviders builds synthetic providers for every configured provider
// name, or a default trio when none are configured. Latency and failure
// rates are staggered so breaker adaptation and health tiers visibly
// diverge.
func demoProviders(cfg *config.Config) []demoProvider {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		names = []string{"alpha", "beta", "gamma"}
	}

	providers := make([]demoProvider, 0, len(names))
	for i, name := range names {
		providers = append(providers, demoProvider{
			name:        name,
			baseLatency: time.Duration(80+70*i) * time.Millisecond,
			failureRate: 0.05 + 0.10*float64(i),
		})
	}
	return providers
}

// runDemoTraffic races the synthetic providers at a fixed interval until
// the context is cancelled, feeding race outcomes to the collector.
func runDemoTraffic(ctx context.Context, engine *fallback.Engine, collector *metrics.Collector, providers []demoProvider, interval time.Duration) {
	logger := slog.Default().With("component", "demo")

	byName := make(map[string]demoProvider, len(providers))
	candidates := make([]string, 0, len(providers))
	for _, p := range providers {
		byName[p.name] = p
		candidates = append(candidates, p.name)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		res, err := fallback.Run(ctx, engine, candidates, func(ctx context.Context, provider string) (string, error) {
			return simulateCall(ctx, byName[provider])
		})

		switch {
		case err == nil:
			collector.RecordRace("success", res.Metrics.Latency, res.Metrics.Attempts)
		case isDeadline(err):
			collector.RecordRace("deadline", res.Metrics.Latency, res.Metrics.Attempts)
		default:
			collector.RecordRace("failure", res.Metrics.Latency, res.Metrics.Attempts)
			logger.Debug("demo race failed", "error", err)
		}
	}
}

// isDeadline reports whether the race ended on its global deadline.
func isDeadline(err error) bool {
	var agg *fallback.AggregateError
	return errors.As(err, &agg) && agg.DeadlineExceeded
}

// simulateCall sleeps for a jittered latency, then fails with the
// provider's configured probability. Failures alternate between 503s and
// rate limits so retry strategies see both kinds.
func simulateCall(ctx context.Context, p demoProvider) (string, error) {
	latency := p.baseLatency + time.Duration(rand.Int63n(int64(p.baseLatency)/2+1))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(latency):
	}

	if rand.Float64() < p.failureRate {
		if rand.Intn(4) == 0 {
			return "", &resilience.RateLimitedError{Provider: p.name, RetryAfter: 500 * time.Millisecond}
		}
		return "", &resilience.UpstreamError{Provider: p.name, StatusCode: 503}
	}
	return "ok from " + p.name, nil
}
