package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/culturank/internal/jobs"
	"github.com/onnwee/culturank/internal/profile"
	"github.com/onnwee/culturank/internal/ranking"
	"github.com/onnwee/culturank/internal/tracing"
)

// DataSource provides the training window of interaction samples.
type DataSource interface {
	// ListTrainingWindow returns all interaction samples recorded at or
	// after since, joined with event and profile state.
	ListTrainingWindow(ctx context.Context, since time.Time) ([]Sample, error)
}

// JobMetrics is the centralized background job reporter. A nil value
// disables centralized job tracking.
type JobMetrics = jobs.Reporter

// Default job settings.
const (
	DefaultInterval        = 24 * time.Hour
	DefaultWindow          = 30 * 24 * time.Hour
	DefaultMinInteractions = 20
	DefaultTimeout         = 5 * time.Minute
)

// jobType is the label used for centralized job metrics.
const jobType = "weight_training"

// Skip reasons reported when a run completes without mutating the weights.
const (
	SkipReasonBusy             = "training already in progress"
	SkipReasonInsufficientData = "insufficient data"
)

// Config configures the weight training job.
type Config struct {
	// Interval is the duration between training runs.
	Interval time.Duration
	// Window is the trailing interaction window evaluated per run.
	Window time.Duration
	// MinInteractions is the minimum window size below which the run
	// skips weight mutation.
	MinInteractions int
	// Timeout for each training run.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
}

// Report is the structured performance summary emitted by one training
// run. It is advisory only and never feeds back into the weights.
type Report struct {
	WindowStart      time.Time            `json:"window_start"`
	WindowEnd        time.Time            `json:"window_end"`
	Interactions     int                  `json:"interactions"`
	HighSatisfaction int                  `json:"high_satisfaction"`
	AverageRating    float64              `json:"average_rating"`
	SaveRate         float64              `json:"save_rate"`
	Performance      Performance          `json:"performance"`
	Skipped          bool                 `json:"skipped"`
	SkipReason       string               `json:"skip_reason,omitempty"`
	OldWeights       ranking.WeightVector `json:"old_weights"`
	NewWeights       ranking.WeightVector `json:"new_weights"`
	Version          int64                `json:"version"`
}

// LogSummary logs the report at INFO level with structured fields.
func (r *Report) LogSummary(logger *slog.Logger) {
	if r.Skipped {
		logger.Info("weight training skipped",
			"reason", r.SkipReason,
			"interactions", r.Interactions,
			"window_start", r.WindowStart,
			"window_end", r.WindowEnd)
		return
	}
	logger.Info("weight training completed",
		"interactions", r.Interactions,
		"high_satisfaction", r.HighSatisfaction,
		"average_rating", r.AverageRating,
		"save_rate", r.SaveRate,
		"category_performance", r.Performance.Category,
		"location_performance", r.Performance.Location,
		"price_performance", r.Performance.Price,
		"new_weights", r.NewWeights.Map(),
		"version", r.Version)
}

// Job periodically retrains the active weight vector from the trailing
// interaction window. One Job owns the replacement of the active snapshot;
// overlapping runs are prevented with a single-flight guard.
type Job struct {
	config Config
	data   DataSource
	store  ranking.WeightStore
	holder *ranking.Holder

	runMu sync.Mutex // single-flight guard around RunOnce

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewJob creates a new weight training job.
func NewJob(config Config, data DataSource, store ranking.WeightStore, holder *ranking.Holder) *Job {
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Window == 0 {
		config.Window = DefaultWindow
	}
	if config.MinInteractions == 0 {
		config.MinInteractions = DefaultMinInteractions
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Job{
		config: config,
		data:   data,
		store:  store,
		holder: holder,
	}
}

// Start begins the periodic training loop.
// Returns immediately; the job runs in a background goroutine.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the training loop to stop and waits for it to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the periodic loop is active.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the training job.
func (j *Job) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("weight training job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("weight training job stopping due to stop signal")
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.config.Logger.Error("weight training run failed", "error", err)
			}
		}
	}
}

// RunOnce executes one training run and returns its report.
//
// The run reads the trailing window, classifies satisfaction, computes the
// three performance ratios over the high-satisfaction subset, applies the
// bounded adjustments, renormalizes, and atomically replaces the active
// snapshot. Runs with fewer than MinInteractions samples skip weight
// mutation and report insufficient data as a non-fatal outcome. A
// persistence failure is fatal to that run only: the previous snapshot
// stays authoritative and ranking continues unaffected.
func (j *Job) RunOnce(parentCtx context.Context) (*Report, error) {
	if !j.runMu.TryLock() {
		j.config.Logger.Warn("weight training already in progress, skipping run")
		return &Report{Skipped: true, SkipReason: SkipReasonBusy}, nil
	}
	defer j.runMu.Unlock()

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	ctx, endSpan := tracing.StartSpan(ctx, "train_weights")
	startTime := time.Now()
	windowStart := startTime.Add(-j.config.Window)

	report := &Report{
		WindowStart: windowStart,
		WindowEnd:   startTime,
		OldWeights:  j.holder.Current().Weights,
	}

	finish := func(status string, runErr error) {
		duration := time.Since(startTime).Seconds()
		if j.config.Metrics != nil {
			j.config.Metrics.IncRunsTotal()
			j.config.Metrics.ObserveRunDuration(duration)
			j.config.Metrics.SetLastRunTime(float64(time.Now().Unix()))
			j.config.Metrics.SetLastWindowSize(float64(report.Interactions))
		}
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobsTotal(jobType, status)
			j.config.JobMetrics.ObserveJobDuration(jobType, duration)
		}
		endSpan(runErr)
	}

	samples, err := j.data.ListTrainingWindow(ctx, windowStart)
	if err != nil {
		if j.config.Metrics != nil {
			j.config.Metrics.IncErrors()
		}
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(jobType, "data_source")
		}
		finish("failure", err)
		return report, fmt.Errorf("failed to load training window: %w", err)
	}

	report.Interactions = len(samples)

	if len(samples) < j.config.MinInteractions {
		report.Skipped = true
		report.SkipReason = SkipReasonInsufficientData
		report.NewWeights = report.OldWeights
		report.Version = j.holder.Current().Version
		if j.config.Metrics != nil {
			j.config.Metrics.IncSkipped()
		}
		report.LogSummary(j.config.Logger)
		finish("success", nil)
		return report, nil
	}

	perf, aggregates := analyze(samples)
	report.Performance = perf
	report.HighSatisfaction = aggregates.highCount
	report.AverageRating = aggregates.averageRating
	report.SaveRate = aggregates.saveRate

	current := j.holder.Current()
	adjusted := Adjust(current.Weights, perf).Normalize()

	snapshot := &ranking.Snapshot{
		Weights:   adjusted,
		Version:   current.Version + 1,
		TrainedAt: startTime,
	}

	if err := j.store.ReplaceActive(ctx, snapshot); err != nil {
		// The previously active vector remains authoritative; ranking is
		// unaffected by a failed run.
		if j.config.Metrics != nil {
			j.config.Metrics.IncErrors()
		}
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(jobType, "persistence")
		}
		finish("failure", err)
		return report, fmt.Errorf("failed to replace active weights: %w", err)
	}

	j.holder.Swap(snapshot)

	report.NewWeights = adjusted
	report.Version = snapshot.Version
	if j.config.Metrics != nil {
		j.config.Metrics.SetActiveVersion(float64(snapshot.Version))
	}
	report.LogSummary(j.config.Logger)
	finish("success", nil)
	return report, nil
}

// windowAggregates holds the advisory statistics computed for the report.
type windowAggregates struct {
	highCount     int
	averageRating float64
	saveRate      float64
}

// analyze computes the performance ratios over the high-satisfaction
// subset of the window plus the advisory aggregates for the report.
// An empty high-satisfaction subset yields zero ratios, which can only
// trigger the bounded decrease path.
func analyze(samples []Sample) (Performance, windowAggregates) {
	var agg windowAggregates
	var ratingSum float64
	var ratingCount, saveCount int
	var categoryHits, locationHits, priceHits int

	for i := range samples {
		s := &samples[i]
		if s.Interaction.Rating != nil {
			ratingSum += float64(*s.Interaction.Rating)
			ratingCount++
		}
		if s.Interaction.Type == profile.InteractionSave {
			saveCount++
		}

		if Classify(s.Interaction) != SatisfactionHigh {
			continue
		}
		agg.highCount++
		if s.categoryMatched() {
			categoryHits++
		}
		if s.locationMatched() {
			locationHits++
		}
		if s.priceMatched() {
			priceHits++
		}
	}

	if ratingCount > 0 {
		agg.averageRating = ratingSum / float64(ratingCount)
	}
	if len(samples) > 0 {
		agg.saveRate = float64(saveCount) / float64(len(samples))
	}

	var perf Performance
	if agg.highCount > 0 {
		perf.Category = float64(categoryHits) / float64(agg.highCount)
		perf.Location = float64(locationHits) / float64(agg.highCount)
		perf.Price = float64(priceHits) / float64(agg.highCount)
	}
	return perf, agg
}
