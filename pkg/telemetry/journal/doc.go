// Package journal persists attempt outcomes to SQLite for offline
// analysis.
//
// # Overview
//
// Journal implements resilience.Sink: every attempt result the breaker
// pool publishes (successes, classified failures, neutral cancellations)
// is enqueued onto an in-memory buffer and written by a single background
// goroutine. The dispatch path never blocks on disk; when the buffer is
// full, entries are dropped and counted instead.
//
// The database runs in WAL mode with a configurable busy timeout. Queries
// (Recent, OutcomeCounts) serve the admin snapshot endpoint.
//
// # Retention
//
// Pruner deletes entries older than the retention window; Scheduler runs
// it on a cron schedule (default daily at 03:00). Retention is advisory
// cleanup, not compliance: a failed prune is logged and retried at the
// next tick.
package journal
