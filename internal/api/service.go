package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/culturank/internal/behavior"
	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
	"github.com/onnwee/culturank/internal/ranking"
)

// StatsRecorder folds recorded interactions into per-event aggregate stats.
type StatsRecorder interface {
	RecordInteraction(ctx context.Context, eventID, interactionType string, rating *int) error
}

// AuditLog records served recommendation lists for later inspection.
type AuditLog interface {
	Record(ctx context.Context, userID string, results []ranking.ScoredEvent) error
}

// ServiceConfig configures the recommendation service.
type ServiceConfig struct {
	// HistoryLimit caps the interaction history loaded per ranking pass.
	HistoryLimit int
	// DefaultTopN is the result count when the client asks for none.
	DefaultTopN int
	// MaxTopN is the hard cap on requested result counts.
	MaxTopN int
	// Logger for service activity.
	Logger *slog.Logger
}

// Service wires the corpus, profile store, and ranker into the operations
// the HTTP handlers expose.
type Service struct {
	config   ServiceConfig
	corpus   catalog.EventCorpus
	users    profile.UserContext
	recorder profile.Recorder
	stats    StatsRecorder
	ranker   *ranking.Ranker
	audit    AuditLog
	now      func() time.Time
}

// NewService creates a new recommendation service. The audit log is
// optional; a nil audit log disables recording.
func NewService(config ServiceConfig, corpus catalog.EventCorpus, users profile.UserContext, recorder profile.Recorder, stats StatsRecorder, ranker *ranking.Ranker, audit AuditLog) *Service {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 50
	}
	if config.DefaultTopN <= 0 {
		config.DefaultTopN = 10
	}
	if config.MaxTopN <= 0 {
		config.MaxTopN = 50
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Service{
		config:   config,
		corpus:   corpus,
		users:    users,
		recorder: recorder,
		stats:    stats,
		ranker:   ranker,
		audit:    audit,
		now:      time.Now,
	}
}

// Recommend produces the ordered recommendation list for a user.
//
// A limit of 0 uses the configured default; requests above the cap are
// clamped rather than rejected. Audit recording is best effort: a failed
// write is logged and the recommendations are served anyway.
func (s *Service) Recommend(ctx context.Context, userID string, limit int, excludeSeen bool) ([]ranking.ScoredEvent, error) {
	if limit <= 0 {
		limit = s.config.DefaultTopN
	}
	if limit > s.config.MaxTopN {
		limit = s.config.MaxTopN
	}

	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	history, err := s.users.GetInteractionHistory(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction history: %w", err)
	}

	candidates, err := s.corpus.ListActiveUpcoming(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	results, err := s.ranker.Rank(ctx, user, history, candidates, limit, excludeSeen)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, userID, results); err != nil {
			s.config.Logger.WarnContext(ctx, "failed to record ranking audit entry",
				"user_id", userID, "error", err)
		}
	}

	return results, nil
}

// UserState is a user's profile plus their recent interactions.
type UserState struct {
	Profile      *profile.UserProfile  `json:"profile"`
	Interactions []profile.Interaction `json:"interactions"`
}

// UserState returns the user's profile and recent interaction history,
// newest first. Unknown users yield a zero-valued profile.
func (s *Service) UserState(ctx context.Context, userID string) (*UserState, error) {
	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	history, err := s.users.GetInteractionHistory(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction history: %w", err)
	}

	return &UserState{Profile: user, Interactions: history}, nil
}

// RecordFeedback validates and stores one interaction, updates the
// event's aggregate stats, and folds the user's recent behavior back into
// their declared preferences. Returns the stored interaction and any
// preference tags the update added.
func (s *Service) RecordFeedback(ctx context.Context, in profile.Interaction) (profile.Interaction, []string, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now().UTC()
	}

	if err := in.Validate(); err != nil {
		return profile.Interaction{}, nil, err
	}

	if err := s.recorder.AppendInteraction(ctx, in); err != nil {
		return profile.Interaction{}, nil, fmt.Errorf("failed to store interaction: %w", err)
	}

	if in.EventID != nil && s.stats != nil {
		if err := s.stats.RecordInteraction(ctx, *in.EventID, in.Type, in.Rating); err != nil {
			// Stats are advisory; the interaction itself is already stored.
			s.config.Logger.WarnContext(ctx, "failed to update event stats",
				"event_id", *in.EventID, "error", err)
		}
	}

	added, err := s.updatePreferences(ctx, in.UserID)
	if err != nil {
		s.config.Logger.WarnContext(ctx, "failed to update learned preferences",
			"user_id", in.UserID, "error", err)
	}

	return in, added, nil
}

// updatePreferences recomputes the user's top engaged categories and
// unions any new ones into their declared preference set.
func (s *Service) updatePreferences(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.users.GetInteractionHistory(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, err
	}

	added := behavior.UpdatePreferencesFromBehavior(user, history)
	if len(added) == 0 {
		return nil, nil
	}

	if err := s.recorder.AddPreferences(ctx, userID, added); err != nil {
		return nil, err
	}

	s.config.Logger.InfoContext(ctx, "learned new preferences from behavior",
		"user_id", userID, "added", added)
	return added, nil
}
