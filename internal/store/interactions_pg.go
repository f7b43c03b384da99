package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
	"github.com/onnwee/culturank/internal/tracing"
	"github.com/onnwee/culturank/internal/trainer"
)

// PostgresProfileStore persists user profiles and their interaction
// history. It implements profile.UserContext, profile.Recorder, and
// trainer.DataSource.
type PostgresProfileStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProfileStore creates a new PostgresProfileStore.
func NewPostgresProfileStore(db *sql.DB, logger *slog.Logger) *PostgresProfileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileStore{db: db, logger: logger}
}

// GetProfile returns the user's profile. Unknown users yield a
// zero-valued profile with the ID set, never an error.
func (s *PostgresProfileStore) GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "user_profiles", tracing.DBOperationQuery)

	query := `
		SELECT preferences, location, lat, lng, budget
		FROM user_profiles
		WHERE user_id = $1
	`

	p := &profile.UserProfile{UserID: userID}
	var prefs pq.StringArray
	var location sql.NullString
	var lat, lng sql.NullFloat64
	var budget sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(&prefs, &location, &lat, &lng, &budget)
	if err == sql.ErrNoRows {
		endSpan(nil)
		return p, nil
	}
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p.Preferences = []string(prefs)
	p.Location = location.String
	if lat.Valid && lng.Valid {
		p.Point = &catalog.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	p.Budget = budget.Float64

	endSpan(nil)
	return p, nil
}

// GetInteractionHistory returns the user's most recent interactions,
// newest first, at most limit entries. A limit of 0 or less means no cap.
func (s *PostgresProfileStore) GetInteractionHistory(ctx context.Context, userID string, limit int) ([]profile.Interaction, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "interactions", tracing.DBOperationQuery)

	query := `
		SELECT id, user_id, event_id, type, rating, category, price, venue, created_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var history []profile.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			endSpan(err)
			return nil, err
		}
		history = append(history, in)
	}
	if err := rows.Err(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}

	endSpan(nil)
	return history, nil
}

// AppendInteraction stores one validated interaction.
func (s *PostgresProfileStore) AppendInteraction(ctx context.Context, in profile.Interaction) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "interactions", tracing.DBOperationInsert)

	query := `
		INSERT INTO interactions (id, user_id, event_id, type, rating, category, price, venue, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		in.ID,
		in.UserID,
		in.EventID,
		in.Type,
		in.Rating,
		nullString(in.Category),
		in.Price,
		nullString(in.Venue),
		in.CreatedAt,
	)
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	endSpan(nil)
	return nil
}

// AddPreferences unions new category tags into the user's preference set.
// Unknown users get a profile row created for them.
func (s *PostgresProfileStore) AddPreferences(ctx context.Context, userID string, categories []string) error {
	if len(categories) == 0 {
		return nil
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "user_profiles", tracing.DBOperationUpdate)

	query := `
		INSERT INTO user_profiles (user_id, preferences)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			preferences = (
				SELECT ARRAY(SELECT DISTINCT unnest(user_profiles.preferences || EXCLUDED.preferences))
			)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, pq.Array(categories)); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to add preferences: %w", err)
	}

	endSpan(nil)
	return nil
}

// ListTrainingWindow returns all interactions recorded at or after since,
// joined with the profile and event state the trainer classifies against.
func (s *PostgresProfileStore) ListTrainingWindow(ctx context.Context, since time.Time) ([]trainer.Sample, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "interactions", tracing.DBOperationQuery)

	query := `
		SELECT i.id, i.user_id, i.event_id, i.type, i.rating, i.category, i.price, i.venue, i.created_at,
		       COALESCE(p.preferences, '{}'), COALESCE(p.location, ''), COALESCE(p.budget, 0),
		       COALESCE(e.city, '')
		FROM interactions i
		LEFT JOIN user_profiles p ON p.user_id = i.user_id
		LEFT JOIN events e ON e.id = i.event_id
		WHERE i.created_at >= $1
		ORDER BY i.created_at, i.id
	`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to list training window: %w", err)
	}
	defer rows.Close()

	var samples []trainer.Sample
	for rows.Next() {
		var sample trainer.Sample
		var eventID sql.NullString
		var rating sql.NullInt64
		var category, venue sql.NullString
		var price sql.NullFloat64
		var prefs pq.StringArray

		err := rows.Scan(
			&sample.Interaction.ID,
			&sample.Interaction.UserID,
			&eventID,
			&sample.Interaction.Type,
			&rating,
			&category,
			&price,
			&venue,
			&sample.Interaction.CreatedAt,
			&prefs,
			&sample.UserLocation,
			&sample.UserBudget,
			&sample.EventCity,
		)
		if err != nil {
			endSpan(err)
			return nil, fmt.Errorf("failed to scan training sample: %w", err)
		}

		if eventID.Valid {
			id := eventID.String
			sample.Interaction.EventID = &id
		}
		if rating.Valid {
			r := int(rating.Int64)
			sample.Interaction.Rating = &r
		}
		sample.Interaction.Category = category.String
		sample.Interaction.Venue = venue.String
		if price.Valid {
			p := price.Float64
			sample.Interaction.Price = &p
		}
		sample.Preferences = []string(prefs)
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to iterate training window: %w", err)
	}

	endSpan(nil)
	return samples, nil
}

// scanInteraction scans one interaction row with nullable columns.
func scanInteraction(rows *sql.Rows) (profile.Interaction, error) {
	var in profile.Interaction
	var eventID sql.NullString
	var rating sql.NullInt64
	var category, venue sql.NullString
	var price sql.NullFloat64

	err := rows.Scan(&in.ID, &in.UserID, &eventID, &in.Type, &rating, &category, &price, &venue, &in.CreatedAt)
	if err != nil {
		return in, fmt.Errorf("failed to scan interaction: %w", err)
	}

	if eventID.Valid {
		id := eventID.String
		in.EventID = &id
	}
	if rating.Valid {
		r := int(rating.Int64)
		in.Rating = &r
	}
	in.Category = category.String
	in.Venue = venue.String
	if price.Valid {
		p := price.Float64
		in.Price = &p
	}
	return in, nil
}

// nullString maps an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
