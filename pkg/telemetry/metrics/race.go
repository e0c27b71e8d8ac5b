package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RaceMetrics tracks fallback race outcomes.
//
// Metrics:
//   - callisto_races_total: Race count by result
//   - callisto_race_duration_seconds: Caller-visible race duration by result
//   - callisto_race_attempts: Provider attempts per race, retries included
type RaceMetrics struct {
	// Race counter by result ("success", "failure", "deadline")
	races *prometheus.CounterVec

	// Caller-visible race duration
	duration *prometheus.HistogramVec

	// Attempts per race
	attempts prometheus.Histogram
}

// NewRaceMetrics creates and registers race metrics with the provided
// registry.
func NewRaceMetrics(registry *prometheus.Registry) *RaceMetrics {
	rm := &RaceMetrics{
		races: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "races_total",
				Help:      "Total fallback races by result",
			},
			[]string{"result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "race_duration_seconds",
				Help:      "Caller-visible fallback race duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"result"},
		),

		attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "race_attempts",
				Help:      "Provider attempts per race, retries included",
				Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
			},
		),
	}

	registry.MustRegister(
		rm.races,
		rm.duration,
		rm.attempts,
	)

	return rm
}

// Record records one finished race.
func (rm *RaceMetrics) Record(result string, duration time.Duration, attempts int) {
	rm.races.WithLabelValues(result).Inc()
	rm.duration.WithLabelValues(result).Observe(duration.Seconds())
	rm.attempts.Observe(float64(attempts))
}
