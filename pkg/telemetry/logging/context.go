package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RaceIDKey is the context key for fallback race identifiers.
	RaceIDKey contextKey = "race_id"

	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"

	// AttemptKey is the context key for attempt numbers.
	AttemptKey contextKey = "attempt"
)

// WithRaceID adds a race identifier to the context.
func WithRaceID(ctx context.Context, raceID string) context.Context {
	return context.WithValue(ctx, RaceIDKey, raceID)
}

// GetRaceID retrieves the race identifier from the context.
func GetRaceID(ctx context.Context) string {
	if raceID, ok := ctx.Value(RaceIDKey).(string); ok {
		return raceID
	}
	return ""
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider name from the context.
func GetProvider(ctx context.Context) string {
	if provider, ok := ctx.Value(ProviderKey).(string); ok {
		return provider
	}
	return ""
}

// WithAttempt adds an attempt number to the context.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, AttemptKey, attempt)
}

// GetAttempt retrieves the attempt number from the context, or zero.
func GetAttempt(ctx context.Context) int {
	if attempt, ok := ctx.Value(AttemptKey).(int); ok {
		return attempt
	}
	return 0
}

// ContextAttrs collects the dispatch fields present in the context as slog
// attributes.
func ContextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if raceID := GetRaceID(ctx); raceID != "" {
		attrs = append(attrs, slog.String(string(RaceIDKey), raceID))
	}
	if provider := GetProvider(ctx); provider != "" {
		attrs = append(attrs, slog.String(string(ProviderKey), provider))
	}
	if attempt := GetAttempt(ctx); attempt > 0 {
		attrs = append(attrs, slog.Int(string(AttemptKey), attempt))
	}
	return attrs
}
