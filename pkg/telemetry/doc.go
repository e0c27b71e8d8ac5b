// Package telemetry provides observability for Callisto.
//
// # Overview
//
// The telemetry subpackages implement structured logging, Prometheus
// metrics, and the durable outcome journal. They observe the dispatch
// core without participating in its decisions: every sink is advisory
// and the core remains correct with all of them disabled.
//
// # Components
//
//   - logging: slog-based structured logging with dispatch context fields
//   - metrics: Prometheus collectors for breakers, attempts, and races
//   - journal: SQLite-backed outcome journal with scheduled retention
package telemetry
