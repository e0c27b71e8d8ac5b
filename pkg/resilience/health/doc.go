// Package health implements rolling-window provider health scoring and
// candidate ranking.
//
// # Overview
//
// Every completed provider attempt is recorded into a fixed-size rolling
// window (success/failure plus latency). From the window each provider gets
// a discrete health tier:
//
//	excellent > good > fair > poor > unhealthy
//
// Tier thresholds are success-rate driven, with the excellent tier also
// requiring the window's P95 latency to stay at or below the provider's
// configured latency baseline.
//
// Rank orders candidates by (tier, estimated latency) ascending and filters
// out unhealthy providers, unless that would leave nothing to try, in which
// case the least-bad candidate is kept as a last resort. Disabled providers
// are always filtered.
//
// The window is deliberately small (50 outcomes by default) so a provider's
// tier recovers quickly once a bad patch ages out.
//
// # Thread safety
//
// The registry serializes updates per provider; recording outcomes for
// different providers does not contend.
package health
