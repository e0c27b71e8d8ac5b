package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/resilience/health"
	"mercator-hq/callisto/pkg/resilience/pool"
	"mercator-hq/callisto/pkg/telemetry/journal"
)

// healthzHandler reports server liveness.
type healthzHandler struct{}

func newHealthzHandler() http.Handler {
	return healthzHandler{}
}

func (healthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// providerState is one provider's breaker and estimator view.
type providerState struct {
	Provider         string  `json:"provider"`
	State            string  `json:"state"`
	FailureCount     int     `json:"failure_count"`
	SuccessCount     int     `json:"success_count"`
	FailureThreshold int     `json:"failure_threshold"`
	SuccessRateEMA   float64 `json:"success_rate_ema"`
	CurrentTimeoutMs int64   `json:"current_timeout_ms"`
	LatencySamples   int     `json:"latency_samples"`
}

// healthState is one provider's rolling health window view.
type healthState struct {
	Provider      string  `json:"provider"`
	Tier          string  `json:"tier"`
	Enabled       bool    `json:"enabled"`
	Attempts      int     `json:"attempts"`
	Successes     int     `json:"successes"`
	Failures      int     `json:"failures"`
	SuccessRate   float64 `json:"success_rate"`
	P95LatencyMs  int64   `json:"p95_latency_ms"`
	MeanLatencyMs int64   `json:"mean_latency_ms"`
}

// stateResponse is the full snapshot served at /state.
type stateResponse struct {
	Timestamp time.Time                 `json:"timestamp"`
	Providers []providerState           `json:"providers"`
	Health    []healthState             `json:"health"`
	Outcomes  map[string]map[string]int `json:"outcomes_24h,omitempty"`
}

// stateHandler serves a JSON snapshot of breaker, timeout, and health
// state per provider, plus 24h outcome counts when a journal is attached.
type stateHandler struct {
	pool     *pool.Pool
	registry *health.Registry
	journal  *journal.Journal
	logger   *slog.Logger
}

func newStateHandler(p *pool.Pool, registry *health.Registry, j *journal.Journal) http.Handler {
	return &stateHandler{
		pool:     p,
		registry: registry,
		journal:  j,
		logger:   slog.Default().With("component", "server.state"),
	}
}

func (h *stateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := stateResponse{Timestamp: time.Now().UTC()}

	for _, m := range h.pool.Snapshot() {
		resp.Providers = append(resp.Providers, providerState{
			Provider:         m.Provider,
			State:            m.State,
			FailureCount:     m.FailureCount,
			SuccessCount:     m.SuccessCount,
			FailureThreshold: m.FailureThreshold,
			SuccessRateEMA:   m.SuccessRateEMA,
			CurrentTimeoutMs: m.CurrentTimeout.Milliseconds(),
			LatencySamples:   m.LatencySamples,
		})
	}

	for _, snap := range h.registry.Snapshot() {
		resp.Health = append(resp.Health, healthState{
			Provider:      snap.Provider,
			Tier:          snap.Tier.String(),
			Enabled:       snap.Enabled,
			Attempts:      snap.Attempts,
			Successes:     snap.Successes,
			Failures:      snap.Failures,
			SuccessRate:   snap.SuccessRate,
			P95LatencyMs:  snap.P95Latency.Milliseconds(),
			MeanLatencyMs: snap.MeanLatency.Milliseconds(),
		})
	}

	if h.journal != nil {
		counts, err := h.journal.OutcomeCounts(r.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			h.logger.Error("failed to query journal counts", "error", err)
		} else if len(counts) > 0 {
			resp.Outcomes = make(map[string]map[string]int, len(counts))
			for provider, byOutcome := range counts {
				inner := make(map[string]int, len(byOutcome))
				for outcome, n := range byOutcome {
					inner[string(outcome)] = n
				}
				resp.Outcomes[provider] = inner
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode state snapshot", "error", err)
	}
}
