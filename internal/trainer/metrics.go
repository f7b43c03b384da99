package trainer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricTrainingRunsTotal      = "weight_training_runs_total"
	MetricTrainingErrors         = "weight_training_errors_total"
	MetricTrainingSkipped        = "weight_training_skipped_total"
	MetricTrainingDuration       = "weight_training_duration_seconds"
	MetricTrainingLastRunTime    = "weight_training_last_run_timestamp"
	MetricTrainingLastWindowSize = "weight_training_last_window_size"
	MetricTrainingActiveVersion  = "weight_training_active_version"
)

// Metrics contains Prometheus metrics for weight training runs.
// All operations are thread-safe.
type Metrics struct {
	runsTotal      prometheus.Counter
	errorsTotal    prometheus.Counter
	skippedTotal   prometheus.Counter
	runDuration    prometheus.Histogram
	lastRunTime    prometheus.Gauge
	lastWindowSize prometheus.Gauge
	activeVersion  prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrainingRunsTotal,
			Help: "Total number of weight training runs",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrainingErrors,
			Help: "Total number of weight training failures",
		}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrainingSkipped,
			Help: "Total number of training runs skipped for insufficient data",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricTrainingDuration,
			Help:    "Histogram of weight training run duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrainingLastRunTime,
			Help: "Unix timestamp of the last weight training run",
		}),
		lastWindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrainingLastWindowSize,
			Help: "Number of interactions in the last training window",
		}),
		activeVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrainingActiveVersion,
			Help: "Version of the active weight vector",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.runsTotal,
		m.errorsTotal,
		m.skippedTotal,
		m.runDuration,
		m.lastRunTime,
		m.lastWindowSize,
		m.activeVersion,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRunsTotal increments the training runs counter.
func (m *Metrics) IncRunsTotal() { m.runsTotal.Inc() }

// IncErrors increments the training errors counter.
func (m *Metrics) IncErrors() { m.errorsTotal.Inc() }

// IncSkipped increments the skipped runs counter.
func (m *Metrics) IncSkipped() { m.skippedTotal.Inc() }

// ObserveRunDuration records a run duration sample.
func (m *Metrics) ObserveRunDuration(seconds float64) { m.runDuration.Observe(seconds) }

// SetLastRunTime sets the last run timestamp gauge.
func (m *Metrics) SetLastRunTime(timestamp float64) { m.lastRunTime.Set(timestamp) }

// SetLastWindowSize sets the last window size gauge.
func (m *Metrics) SetLastWindowSize(count float64) { m.lastWindowSize.Set(count) }

// SetActiveVersion sets the active weight vector version gauge.
func (m *Metrics) SetActiveVersion(version float64) { m.activeVersion.Set(version) }
