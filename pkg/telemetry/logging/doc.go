// Package logging provides structured logging for Callisto.
//
// The package builds standard *slog.Logger instances from configuration
// (level, format, writer) and installs a context-aware handler: dispatch
// fields carried in a record's context (race ID, provider, attempt number)
// are appended to every record automatically, so components do not have to
// thread them through call sites by hand.
//
// Setup installs the configured logger as the process default. Components
// derive their own loggers with slog.Default().With("component", ...).
package logging
