package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/culturank/internal/ranking"
)

// Audit log retention settings.
const (
	auditKeyPrefix  = "audit:rank:"
	auditMaxEntries = 50
	auditTTL        = 7 * 24 * time.Hour
)

// AuditEntry is one recorded ranking pass: which events were recommended
// to a user, with what scores, under which weight version.
type AuditEntry struct {
	UserID         string        `cbor:"user_id"`
	RecordedAt     time.Time     `cbor:"recorded_at"`
	WeightsVersion int64         `cbor:"weights_version"`
	Results        []AuditResult `cbor:"results"`
}

// AuditResult is one recommended event within an audit entry.
type AuditResult struct {
	EventID string   `cbor:"event_id"`
	Score   float64  `cbor:"score"`
	Reasons []string `cbor:"reasons,omitempty"`
}

// RedisAuditLog keeps a bounded per-user trail of ranking passes in Redis.
// Entries are CBOR encoded; each user's list is capped and expires after a
// week of inactivity. The log is advisory: failures are surfaced to the
// caller but never block serving recommendations.
type RedisAuditLog struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisAuditLog creates a new RedisAuditLog.
func NewRedisAuditLog(client *redis.Client, logger *slog.Logger) *RedisAuditLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisAuditLog{client: client, logger: logger, now: time.Now}
}

// Record appends one ranking pass to the user's audit trail.
func (l *RedisAuditLog) Record(ctx context.Context, userID string, results []ranking.ScoredEvent) error {
	if len(results) == 0 {
		return nil
	}

	entry := AuditEntry{
		UserID:         userID,
		RecordedAt:     l.now().UTC(),
		WeightsVersion: results[0].WeightsVersion,
		Results:        make([]AuditResult, 0, len(results)),
	}
	for _, r := range results {
		entry.Results = append(entry.Results, AuditResult{
			EventID: r.Event.ID,
			Score:   r.Score,
			Reasons: r.Reasons,
		})
	}

	data, err := cbor.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	key := auditKeyPrefix + userID
	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, auditMaxEntries-1)
	pipe.Expire(ctx, key, auditTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Recent returns the user's most recent audit entries, newest first, at
// most limit entries.
func (l *RedisAuditLog) Recent(ctx context.Context, userID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = auditMaxEntries
	}

	key := auditKeyPrefix + userID
	raw, err := l.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}

	entries := make([]AuditEntry, 0, len(raw))
	for _, data := range raw {
		var entry AuditEntry
		if err := cbor.Unmarshal([]byte(data), &entry); err != nil {
			// Skip undecodable entries rather than failing the whole read.
			l.logger.Warn("skipping undecodable audit entry",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
