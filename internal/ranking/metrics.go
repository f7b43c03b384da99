package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankPassesTotal    = "ranking_passes_total"
	MetricRankPassDuration   = "ranking_pass_duration_seconds"
	MetricRankCandidates     = "ranking_candidates_scored"
	MetricRankResultsEmitted = "ranking_results_emitted"
)

// Metrics contains Prometheus metrics for ranking passes.
// All operations are thread-safe.
type Metrics struct {
	passesTotal    prometheus.Counter
	passDuration   prometheus.Histogram
	candidates     prometheus.Histogram
	resultsEmitted prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		passesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankPassesTotal,
			Help: "Total number of ranking passes",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankPassDuration,
			Help:    "Histogram of ranking pass duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankCandidates,
			Help:    "Histogram of candidate set sizes per ranking pass",
			Buckets: []float64{1, 10, 25, 50, 100, 250, 500, 1000},
		}),
		resultsEmitted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankResultsEmitted,
			Help:    "Histogram of result list sizes per ranking pass",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.passesTotal,
		m.passDuration,
		m.candidates,
		m.resultsEmitted,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRankPass records the metrics for one completed ranking pass.
func (m *Metrics) ObserveRankPass(durationSeconds float64, candidateCount, resultCount int) {
	m.passesTotal.Inc()
	m.passDuration.Observe(durationSeconds)
	m.candidates.Observe(float64(candidateCount))
	m.resultsEmitted.Observe(float64(resultCount))
}
