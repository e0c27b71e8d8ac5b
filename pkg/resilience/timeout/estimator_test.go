package timeout

import (
	"testing"
	"time"
)

func feed(e *Estimator, latency time.Duration, n int) {
	for i := 0; i < n; i++ {
		e.Observe(latency, true)
	}
}

func TestEstimator_InitialTimeoutBeforeWarmup(t *testing.T) {
	e := New(Config{Strategy: StrategyQuantile, InitialTimeout: 10 * time.Second})

	if got := e.Current(); got != 10*time.Second {
		t.Fatalf("expected initial timeout, got %s", got)
	}

	// Fewer than minSamples observations keep the initial value.
	feed(e, 100*time.Millisecond, minSamples-1)
	if got := e.Current(); got != 10*time.Second {
		t.Fatalf("expected initial timeout during warmup, got %s", got)
	}
}

func TestEstimator_FixedNeverAdapts(t *testing.T) {
	e := New(Config{Strategy: StrategyFixed, InitialTimeout: 7 * time.Second})

	feed(e, 50*time.Second, 200)
	if got := e.Current(); got != 7*time.Second {
		t.Fatalf("expected fixed timeout to stay at 7s, got %s", got)
	}
}

func TestEstimator_QuantileWithMargin(t *testing.T) {
	e := New(Config{
		Strategy:       StrategyQuantile,
		InitialTimeout: 30 * time.Second,
		WindowSize:     100,
		MarginFactor:   1.5,
	})

	// Uniform latencies: P95 == latency, so effective == latency * 1.5.
	feed(e, 2*time.Second, 50)
	if got, want := e.Current(), 3*time.Second; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestEstimator_ClampBounds(t *testing.T) {
	tests := []struct {
		name    string
		latency time.Duration
		want    time.Duration
	}{
		{
			name:    "adversarial spikes clamp to max",
			latency: 10 * time.Minute,
			want:    120 * time.Second,
		},
		{
			name:    "collapsing latencies clamp to min",
			latency: time.Millisecond,
			want:    time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Config{
				Strategy:   StrategyQuantile,
				MinTimeout: time.Second,
				MaxTimeout: 120 * time.Second,
			})
			feed(e, tt.latency, 150)
			if got := e.Current(); got != tt.want {
				t.Errorf("expected clamp to %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEstimator_ClampHoldsUnderMixedSequences(t *testing.T) {
	e := New(Config{
		Strategy:   StrategyPredictive,
		MinTimeout: time.Second,
		MaxTimeout: 120 * time.Second,
	})

	latencies := []time.Duration{
		10 * time.Millisecond, 5 * time.Minute, 20 * time.Millisecond,
		time.Hour, time.Microsecond, 30 * time.Second, 0,
	}
	for i := 0; i < 100; i++ {
		e.Observe(latencies[i%len(latencies)], i%3 != 0)
		got := e.Current()
		if got < time.Second || got > 120*time.Second {
			t.Fatalf("effective timeout escaped clamp band at step %d: %s", i, got)
		}
	}
}

func TestEstimator_QuantileTracksTail(t *testing.T) {
	e := New(Config{
		Strategy:     StrategyQuantile,
		WindowSize:   100,
		MarginFactor: 1.5,
		MaxTimeout:   120 * time.Second,
	})

	// 95 fast samples and 5 slow ones: P95 lands in the slow tail.
	feed(e, time.Second, 95)
	feed(e, 10*time.Second, 5)

	got := e.Current()
	if got < 10*time.Second {
		t.Errorf("expected tail-driven timeout >= 10s, got %s", got)
	}
}

func TestEstimator_WindowEviction(t *testing.T) {
	e := New(Config{
		Strategy:     StrategyQuantile,
		WindowSize:   20,
		MarginFactor: 1.5,
		MaxTimeout:   120 * time.Second,
	})

	// A bad patch fills the window, then fully ages out.
	feed(e, 60*time.Second, 20)
	if got := e.Current(); got < 90*time.Second {
		t.Fatalf("expected slow-patch timeout, got %s", got)
	}

	feed(e, time.Second, 20)
	if got, want := e.Current(), 1500*time.Millisecond; got != want {
		t.Errorf("expected recovered timeout %s after eviction, got %s", want, got)
	}

	if got := e.SampleCount(); got != 20 {
		t.Errorf("expected window capped at 20 samples, got %d", got)
	}
}

func TestEstimator_AdaptiveMarginShrinksWithSuccess(t *testing.T) {
	reliable := New(Config{Strategy: StrategyAdaptive, MarginFactor: 2.0})
	flaky := New(Config{Strategy: StrategyAdaptive, MarginFactor: 2.0})

	for i := 0; i < 100; i++ {
		reliable.Observe(2*time.Second, true)
		flaky.Observe(2*time.Second, i%2 == 0)
	}

	if r, f := reliable.Current(), flaky.Current(); r >= f {
		t.Errorf("expected reliable provider to get a tighter timeout: reliable=%s flaky=%s", r, f)
	}
}

func TestEstimator_PredictiveReactsToRisingTrend(t *testing.T) {
	rising := New(Config{Strategy: StrategyPredictive, WindowSize: 40, MaxTimeout: 120 * time.Second})
	flat := New(Config{Strategy: StrategyQuantile, WindowSize: 40, MaxTimeout: 120 * time.Second})

	// Same samples into both: latency doubling over the window.
	for i := 0; i < 40; i++ {
		latency := time.Duration(1+i/20) * time.Second
		rising.Observe(latency, true)
		flat.Observe(latency, true)
	}

	if r, f := rising.Current(), flat.Current(); r <= f {
		t.Errorf("expected predictive estimate above quantile under rising trend: predictive=%s quantile=%s", r, f)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"fixed", StrategyFixed, false},
		{"adaptive", StrategyAdaptive, false},
		{"quantile", StrategyQuantile, false},
		{"predictive", StrategyPredictive, false},
		{"", StrategyQuantile, false},
		{"p99", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStrategy(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
