package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces rate limit counters in Redis.
const rateLimitKeyPrefix = "ratelimit:"

// RedisRateLimitStore implements RateLimitStore backed by Redis, so the
// limit holds across server replicas. It uses a fixed window counter:
// INCR plus EXPIRE on first increment.
//
// Redis failures fail open: an unreachable Redis must not take the API
// down with it. Set Metrics to count fail-open events.
type RedisRateLimitStore struct {
	client  *redis.Client
	metrics *Metrics
}

// NewRedisRateLimitStore creates a new Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// SetMetrics attaches metrics for tracking Redis errors (fail-open events).
func (s *RedisRateLimitStore) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	redisKey := rateLimitKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// Only the first increment in a window sets the expiry.
	pipe.ExpireNX(ctx, redisKey, config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.IncRateLimitRedisErrors()
		}
		// Fail open with the full quota: an unreachable Redis must not
		// throttle traffic.
		return true, config.RequestsPerWindow, 0
	}

	count := incr.Val()
	if count <= int64(config.RequestsPerWindow) {
		return true, config.RequestsPerWindow - int(count), 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		if s.metrics != nil && err != nil {
			s.metrics.IncRateLimitRedisErrors()
		}
		ttl = config.WindowDuration
	}

	retryAfter := int(ttl / time.Second)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, 0, retryAfter
}
