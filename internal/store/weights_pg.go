package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/onnwee/culturank/internal/ranking"
	"github.com/onnwee/culturank/internal/tracing"
)

// PostgresWeightStore persists trained weight vectors. Exactly one row is
// active at a time; ReplaceActive deactivates the previous row and inserts
// the new one in a single transaction.
type PostgresWeightStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresWeightStore creates a new PostgresWeightStore.
func NewPostgresWeightStore(db *sql.DB, logger *slog.Logger) *PostgresWeightStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWeightStore{db: db, logger: logger}
}

// LoadActive returns the currently active snapshot, or
// ranking.ErrNoActiveWeights when no training run has persisted one yet.
func (s *PostgresWeightStore) LoadActive(ctx context.Context) (*ranking.Snapshot, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ranking_weights", tracing.DBOperationQuery)

	query := `
		SELECT version, preference_match, location_proximity, price_compatibility,
		       time_preference, social_signals, novelty_factor, trained_at
		FROM ranking_weights
		WHERE active = TRUE
	`

	var snapshot ranking.Snapshot
	err := s.db.QueryRowContext(ctx, query).Scan(
		&snapshot.Version,
		&snapshot.Weights.PreferenceMatch,
		&snapshot.Weights.LocationProximity,
		&snapshot.Weights.PriceCompatibility,
		&snapshot.Weights.TimePreference,
		&snapshot.Weights.SocialSignals,
		&snapshot.Weights.NoveltyFactor,
		&snapshot.TrainedAt,
	)
	if err == sql.ErrNoRows {
		endSpan(nil)
		return nil, ranking.ErrNoActiveWeights
	}
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	endSpan(nil)
	return &snapshot, nil
}

// ReplaceActive atomically replaces the active snapshot. The previous row
// is kept, deactivated, so past vectors remain inspectable.
func (s *PostgresWeightStore) ReplaceActive(ctx context.Context, snapshot *ranking.Snapshot) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ranking_weights", tracing.DBOperationUpdate)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Always attempt rollback on function exit (no-op after successful commit)
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("failed to rollback transaction",
				slog.String("error", err.Error()))
		}
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE ranking_weights SET active = FALSE WHERE active = TRUE`); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to deactivate previous weights: %w", err)
	}

	insertQuery := `
		INSERT INTO ranking_weights (
			id, version, preference_match, location_proximity, price_compatibility,
			time_preference, social_signals, novelty_factor, trained_at, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		uuid.New().String(),
		snapshot.Version,
		snapshot.Weights.PreferenceMatch,
		snapshot.Weights.LocationProximity,
		snapshot.Weights.PriceCompatibility,
		snapshot.Weights.TimePreference,
		snapshot.Weights.SocialSignals,
		snapshot.Weights.NoveltyFactor,
		snapshot.TrainedAt,
	)
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to insert weights: %w", err)
	}

	if err := tx.Commit(); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to commit weights replacement: %w", err)
	}

	s.logger.Info("active weight vector replaced",
		slog.Int64("version", snapshot.Version),
		slog.Time("trained_at", snapshot.TrainedAt))
	endSpan(nil)
	return nil
}
