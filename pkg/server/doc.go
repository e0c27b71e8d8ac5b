// Package server provides the admin HTTP server for the dispatch core.
//
// # Overview
//
// The admin server is an observation surface only: it never carries
// dispatch traffic. It serves a liveness endpoint, a JSON snapshot of the
// breaker pool and health registry, and (when enabled) the Prometheus
// metrics endpoint.
//
// # Routes
//
//   - GET /healthz - Liveness probe (always returns 200)
//   - GET /state - JSON snapshot of breaker, timeout, and health state
//     per provider, plus 24h outcome counts when a journal is attached
//   - GET /metrics - Prometheus exposition (path configurable)
//
// # Basic Usage
//
//	registry := health.NewRegistry(health.DefaultConfig())
//	p := pool.New(pool.DefaultConfig(), pool.WithSink(registry))
//
//	srv := server.NewServer(cfg.Server, p, registry,
//	    server.WithMetrics(cfg.Telemetry.Metrics.Path, collector.Handler()),
//	    server.WithJournal(j),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, an OS signal arrives
// (SIGTERM, SIGINT), or the listener fails. Shutdown stops accepting new
// connections, waits for active connections up to the configured shutdown
// timeout, then forces closure.
package server
