package ranking

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/onnwee/culturank/internal/behavior"
	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
	"github.com/onnwee/culturank/internal/scoring"
	"github.com/onnwee/culturank/internal/tracing"
)

// ScoredEvent is an event with its final score, the derived match reasons,
// and the weight vector version that produced it. Scored events are
// recomputed on every ranking request and never treated as authoritative
// state.
type ScoredEvent struct {
	Event          catalog.Event `json:"event"`
	Score          float64       `json:"score"`
	Reasons        []string      `json:"reasons"`
	WeightsVersion int64         `json:"weights_version"`
}

// Ranker scores candidate sets against a user context and returns ordered,
// explained top-N lists. Ranking is stateless per request: the only shared
// input is the weight snapshot, read once per pass.
type Ranker struct {
	holder  *Holder
	stats   catalog.StatsSource
	logger  *slog.Logger
	metrics *Metrics
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets the logger used for per-pass diagnostics.
func WithLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) { r.logger = logger }
}

// WithMetrics sets the metrics recorder for ranking passes.
func WithMetrics(m *Metrics) RankerOption {
	return func(r *Ranker) { r.metrics = m }
}

// NewRanker creates a ranker reading weights from holder and aggregate
// event stats from stats.
func NewRanker(holder *Holder, stats catalog.StatsSource, opts ...RankerOption) *Ranker {
	r := &Ranker{
		holder: holder,
		stats:  stats,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every candidate, discards non-positive scores, sorts
// descending with insertion order breaking ties, and returns the top
// limit events with their reasons. limit <= 0 returns all positive-score
// events. When excludeSeen is true, events the user has already viewed or
// clicked are dropped before scoring.
//
// The pass reads one weight snapshot up front; concurrent training swaps
// cannot tear it. Given fixed inputs and snapshot, the output is
// deterministic.
func (r *Ranker) Rank(ctx context.Context, user *profile.UserProfile, history []profile.Interaction, candidates []catalog.Event, limit int, excludeSeen bool) ([]ScoredEvent, error) {
	ctx, endSpan := tracing.StartScoringSpan(ctx, user.UserID, len(candidates))
	start := time.Now()

	snap := r.holder.Current()

	var seen map[string]bool
	if excludeSeen {
		seen = seenEventIDs(history)
	}

	type scored struct {
		event   catalog.Event
		factors scoring.Factors
		score   float64
		order   int
	}

	results := make([]scored, 0, len(candidates))
	for i := range candidates {
		ev := candidates[i]
		if excludeSeen && seen[ev.ID] {
			continue
		}

		stats, err := r.stats.GetEventStats(ctx, ev.ID)
		if err != nil {
			// Stats are an enrichment, not a requirement: score the event
			// with zero aggregates rather than failing the pass.
			r.logger.Warn("failed to load event stats, scoring without social signals",
				"event_id", ev.ID,
				"error", err)
			stats = catalog.EventStats{}
		}

		factors := scoring.Compute(&ev, user, history, stats)
		multipliers := behavior.Compute(history, &ev)
		score := FinalScore(factors, snap.Weights, multipliers)
		if score <= 0 {
			continue
		}

		results = append(results, scored{event: ev, factors: factors, score: score, order: i})
	}

	// Stable descending sort: equal scores keep candidate insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	ranked := make([]ScoredEvent, 0, len(results))
	for _, s := range results {
		ranked = append(ranked, ScoredEvent{
			Event:          s.event,
			Score:          s.score,
			Reasons:        Reasons(s.factors, &s.event, s.score),
			WeightsVersion: snap.Version,
		})
	}

	duration := time.Since(start).Seconds()
	if r.metrics != nil {
		r.metrics.ObserveRankPass(duration, len(candidates), len(ranked))
	}
	r.logger.Debug("ranking pass completed",
		"user_id", user.UserID,
		"candidates", len(candidates),
		"returned", len(ranked),
		"weights_version", snap.Version,
		"duration_seconds", duration)

	endSpan(nil)
	return ranked, nil
}

// seenEventIDs collects the IDs of events the user has already viewed or
// clicked.
func seenEventIDs(history []profile.Interaction) map[string]bool {
	seen := make(map[string]bool)
	for _, in := range history {
		if in.EventID == nil {
			continue
		}
		if in.Type == profile.InteractionView || in.Type == profile.InteractionClick {
			seen[*in.EventID] = true
		}
	}
	return seen
}
