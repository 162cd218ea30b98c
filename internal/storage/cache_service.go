package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService provides high-level caching for computed views: watchlist
// aggregates, report lookups and analytics rollups. Writers invalidate the
// user's keys after every mutation, so a hit is never staler than one TTL.
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyAggregate is for watchlist aggregate views
	CacheKeyAggregate CacheKeyType = "aggregate"
	// CacheKeyReport is for individual wallet reports
	CacheKeyReport CacheKeyType = "report"
	// CacheKeyAnalytics is for business analytics rollups
	CacheKeyAnalytics CacheKeyType = "analytics"
)

// GenerateCacheKey generates a cache key for a given type and parameters.
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	normalized := make([]string, len(params))
	for i, param := range params {
		normalized[i] = strings.ToLower(param)
	}

	parts := append([]string{string(keyType)}, normalized...)
	return strings.Join(parts, ":")
}

// AggregateKey generates the cache key for a user's watchlist aggregate.
// Format: aggregate:<email>
func (c *CacheService) AggregateKey(email string) string {
	return c.GenerateCacheKey(CacheKeyAggregate, email)
}

// ReportKey generates the cache key for one report.
// Format: report:<email>:<report-id>
func (c *CacheService) ReportKey(email, reportID string) string {
	return c.GenerateCacheKey(CacheKeyReport, email, reportID)
}

// AnalyticsKey generates the cache key for an analytics window.
// Format: analytics:<window>
func (c *CacheService) AnalyticsKey(window string) string {
	return c.GenerateCacheKey(CacheKeyAnalytics, window)
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redis.Set(ctx, key, data, ttl)
}

// Get retrieves a value from cache and deserializes it. A miss returns
// (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// InvalidateUser drops every cached view belonging to a user. Called after
// watchlist mutations so aggregates never serve removed entries.
func (c *CacheService) InvalidateUser(ctx context.Context, email string) error {
	patterns := []string{
		c.AggregateKey(email),
		c.GenerateCacheKey(CacheKeyReport, email) + ":*",
	}

	var keys []string
	for _, pattern := range patterns {
		if !strings.Contains(pattern, "*") {
			keys = append(keys, pattern)
			continue
		}
		matched, err := c.redis.Keys(ctx, pattern)
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		keys = append(keys, matched...)
	}

	return c.Invalidate(ctx, keys...)
}
