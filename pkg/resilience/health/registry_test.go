package health

import (
	"sync"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/resilience"
)

func feedOutcomes(r *Registry, provider string, successes, failures int, latency time.Duration) {
	for i := 0; i < successes; i++ {
		r.Record(provider, true, latency)
	}
	for i := 0; i < failures; i++ {
		r.Record(provider, false, latency)
	}
}

func TestRegistry_TierThresholds(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		latency   time.Duration
		want      Tier
	}{
		{"all fast successes", 50, 0, 100 * time.Millisecond, TierExcellent},
		{"all slow successes", 50, 0, 5 * time.Second, TierGood},
		{"96 percent", 48, 2, 100 * time.Millisecond, TierGood},
		{"80 percent", 40, 10, 100 * time.Millisecond, TierFair},
		{"60 percent", 30, 20, 100 * time.Millisecond, TierPoor},
		{"40 percent", 20, 30, 100 * time.Millisecond, TierUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(Config{WindowSize: 50})
			feedOutcomes(r, "p", tt.successes, tt.failures, tt.latency)
			if got := r.Tier("p"); got != tt.want {
				t.Errorf("expected tier %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRegistry_TierRecoversAsWindowAges(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	// A bad patch followed by 40 successes: 40/50 in the window, FAIR.
	feedOutcomes(r, "openai", 0, 10, 100*time.Millisecond)
	feedOutcomes(r, "openai", 40, 0, 100*time.Millisecond)
	if got := r.Tier("openai"); got != TierFair {
		t.Fatalf("expected fair, got %s", got)
	}

	// 20 more successes evict the bad patch from the window entirely.
	feedOutcomes(r, "openai", 20, 0, 100*time.Millisecond)
	got := r.Tier("openai")
	if got != TierGood && got != TierExcellent {
		t.Errorf("expected good or better after recovery, got %s", got)
	}
}

func TestRegistry_UnknownProviderNeutral(t *testing.T) {
	r := NewRegistry(Config{})

	if got := r.Tier("never-seen"); got != TierGood {
		t.Errorf("expected neutral good tier for unknown provider, got %s", got)
	}
}

func TestRegistry_RankOrdersByTierThenLatency(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	feedOutcomes(r, "excellent-slow", 50, 0, time.Second)
	feedOutcomes(r, "excellent-fast", 50, 0, 100*time.Millisecond)
	feedOutcomes(r, "fair", 40, 10, 100*time.Millisecond)
	feedOutcomes(r, "poor", 30, 20, 100*time.Millisecond)

	got := r.Rank([]string{"poor", "excellent-slow", "fair", "excellent-fast"})
	want := []string{"excellent-fast", "excellent-slow", "fair", "poor"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRegistry_RankExcludesUnhealthy(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	feedOutcomes(r, "healthy", 50, 0, 100*time.Millisecond)
	feedOutcomes(r, "broken", 5, 45, 100*time.Millisecond)

	got := r.Rank([]string{"broken", "healthy"})
	if len(got) != 1 || got[0] != "healthy" {
		t.Errorf("expected unhealthy provider filtered, got %v", got)
	}
}

func TestRegistry_RankKeepsLastResortWhenAllUnhealthy(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	feedOutcomes(r, "bad", 5, 45, 100*time.Millisecond)
	feedOutcomes(r, "worse", 0, 50, 100*time.Millisecond)

	got := r.Rank([]string{"bad", "worse"})
	if len(got) == 0 {
		t.Fatal("expected at least one last-resort candidate")
	}
}

func TestRegistry_RankSkipsDisabled(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	feedOutcomes(r, "a", 50, 0, 100*time.Millisecond)
	feedOutcomes(r, "b", 50, 0, 100*time.Millisecond)
	r.SetEnabled("a", false)

	got := r.Rank([]string{"a", "b"})
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("expected disabled provider excluded, got %v", got)
	}

	r.SetEnabled("a", true)
	if got := r.Rank([]string{"a", "b"}); len(got) != 2 {
		t.Errorf("expected re-enabled provider back in ranking, got %v", got)
	}
}

func TestRegistry_CancelledAttemptsAreNeutral(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	feedOutcomes(r, "p", 10, 0, 100*time.Millisecond)
	before := r.SnapshotProvider("p")

	for i := 0; i < 25; i++ {
		r.RecordAttempt(resilience.AttemptResult{
			Provider: "p",
			Outcome:  resilience.OutcomeCancelled,
			Latency:  time.Second,
		})
	}

	after := r.SnapshotProvider("p")
	if after.Attempts != before.Attempts {
		t.Errorf("cancelled attempts changed the window: %d -> %d", before.Attempts, after.Attempts)
	}
	if after.Tier != before.Tier {
		t.Errorf("cancelled attempts changed the tier: %s -> %s", before.Tier, after.Tier)
	}
}

func TestRegistry_TierChangeHook(t *testing.T) {
	var (
		mu      sync.Mutex
		changes []string
	)
	r := NewRegistry(Config{WindowSize: 10},
		WithTierChangeFunc(func(provider string, from, to Tier) {
			mu.Lock()
			changes = append(changes, from.String()+"->"+to.String())
			mu.Unlock()
		}),
	)

	// Neutral prior is good; a clean window of fast successes promotes.
	feedOutcomes(r, "p", 10, 0, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 || changes[0] != "good->excellent" {
		t.Errorf("expected good->excellent promotion, got %v", changes)
	}
}

func TestRegistry_ConcurrentRecording(t *testing.T) {
	r := NewRegistry(Config{WindowSize: 50})

	var wg sync.WaitGroup
	providers := []string{"a", "b", "c", "d"}
	for _, p := range providers {
		wg.Add(1)
		go func(provider string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				r.Record(provider, i%10 != 0, time.Duration(i%100)*time.Millisecond)
			}
		}(p)
	}
	wg.Wait()

	for _, p := range providers {
		snap := r.SnapshotProvider(p)
		if snap.Attempts != 50 {
			t.Errorf("provider %s: expected full window of 50, got %d", p, snap.Attempts)
		}
	}
}
