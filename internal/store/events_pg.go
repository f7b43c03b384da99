package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
	"github.com/onnwee/culturank/internal/tracing"
)

// PostgresEventCorpus serves the candidate event corpus and per-event
// engagement stats. It implements catalog.EventCorpus and
// catalog.StatsSource.
type PostgresEventCorpus struct {
	db             *sql.DB
	logger         *slog.Logger
	candidateLimit int
}

// NewPostgresEventCorpus creates a new PostgresEventCorpus.
func NewPostgresEventCorpus(db *sql.DB, logger *slog.Logger) *PostgresEventCorpus {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEventCorpus{db: db, logger: logger, candidateLimit: defaultCandidateLimit}
}

const defaultCandidateLimit = 500

// SetCandidateLimit bounds how many candidate events one listing returns.
// Values at or below zero restore the default.
func (c *PostgresEventCorpus) SetCandidateLimit(limit int) {
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	c.candidateLimit = limit
}

// ListActiveUpcoming returns events starting at or after now, excluding
// the given IDs, in stored order. The result is capped at the configured
// candidate limit; soonest events win under pressure.
func (c *PostgresEventCorpus) ListActiveUpcoming(ctx context.Context, excludeIDs []string) ([]catalog.Event, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "events", tracing.DBOperationQuery)

	query := `
		SELECT id, title, category, price, venue, city, lat, lng, starts_at
		FROM events
		WHERE active = TRUE
		  AND starts_at >= NOW()
		  AND NOT (id = ANY($1))
		ORDER BY starts_at, id
		LIMIT $2
	`
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	rows, err := c.db.QueryContext(ctx, query, pq.Array(excludeIDs), c.candidateLimit)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	defer rows.Close()

	var events []catalog.Event
	for rows.Next() {
		var e catalog.Event
		var price sql.NullFloat64
		var venue, city sql.NullString
		var lat, lng sql.NullFloat64

		if err := rows.Scan(&e.ID, &e.Title, &e.Category, &price, &venue, &city, &lat, &lng, &e.StartsAt); err != nil {
			endSpan(err)
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if price.Valid {
			p := price.Float64
			e.Price = &p
		}
		e.Venue = venue.String
		e.City = city.String
		if lat.Valid && lng.Valid {
			e.Point = &catalog.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	endSpan(nil)
	return events, nil
}

// GetEvent returns a single event by ID regardless of its active flag.
// Unknown IDs yield catalog.ErrEventNotFound.
func (c *PostgresEventCorpus) GetEvent(ctx context.Context, eventID string) (*catalog.Event, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "events", tracing.DBOperationQuery)

	query := `
		SELECT id, title, category, price, venue, city, lat, lng, starts_at
		FROM events
		WHERE id = $1
	`

	var e catalog.Event
	var price sql.NullFloat64
	var venue, city sql.NullString
	var lat, lng sql.NullFloat64

	err := c.db.QueryRowContext(ctx, query, eventID).Scan(
		&e.ID, &e.Title, &e.Category, &price, &venue, &city, &lat, &lng, &e.StartsAt)
	if err == sql.ErrNoRows {
		endSpan(nil)
		return nil, catalog.ErrEventNotFound
	}
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if price.Valid {
		p := price.Float64
		e.Price = &p
	}
	e.Venue = venue.String
	e.City = city.String
	if lat.Valid && lng.Valid {
		e.Point = &catalog.Point{Lat: lat.Float64, Lng: lng.Float64}
	}

	endSpan(nil)
	return &e, nil
}

// GetEventStats returns aggregate engagement stats for an event. Events
// with no recorded interactions yield zero stats, not an error.
func (c *PostgresEventCorpus) GetEventStats(ctx context.Context, eventID string) (catalog.EventStats, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "event_stats", tracing.DBOperationQuery)

	query := `
		SELECT interactions, saves, rating_sum, rating_count
		FROM event_stats
		WHERE event_id = $1
	`

	var stats catalog.EventStats
	err := c.db.QueryRowContext(ctx, query, eventID).Scan(
		&stats.Interactions,
		&stats.Saves,
		&stats.RatingSum,
		&stats.RatingCount,
	)
	if err == sql.ErrNoRows {
		endSpan(nil)
		return catalog.EventStats{}, nil
	}
	if err != nil {
		endSpan(err)
		return catalog.EventStats{}, fmt.Errorf("failed to load event stats: %w", err)
	}

	endSpan(nil)
	return stats, nil
}

// RecordInteraction folds one interaction into the event's aggregate
// stats row, creating it on first contact.
func (c *PostgresEventCorpus) RecordInteraction(ctx context.Context, eventID, interactionType string, rating *int) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "event_stats", tracing.DBOperationUpdate)

	saveDelta := 0
	if interactionType == profile.InteractionSave {
		saveDelta = 1
	}
	ratingDelta := 0
	ratingCountDelta := 0
	if rating != nil {
		ratingDelta = *rating
		ratingCountDelta = 1
	}

	query := `
		INSERT INTO event_stats (event_id, interactions, saves, rating_sum, rating_count)
		VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT (event_id) DO UPDATE SET
			interactions = event_stats.interactions + 1,
			saves        = event_stats.saves + EXCLUDED.saves,
			rating_sum   = event_stats.rating_sum + EXCLUDED.rating_sum,
			rating_count = event_stats.rating_count + EXCLUDED.rating_count
	`
	if _, err := c.db.ExecContext(ctx, query, eventID, saveDelta, ratingDelta, ratingCountDelta); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to record interaction stats: %w", err)
	}

	endSpan(nil)
	return nil
}
