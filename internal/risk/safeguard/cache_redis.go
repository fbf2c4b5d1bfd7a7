package safeguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"custodia/internal/risk/ports"
)

const cacheKeyPrefix = "custodia:safeguard:"

// RedisCache memoizes certification answers, positive and negative, for
// ttl. Lookup errors are never cached.
type RedisCache struct {
	next   ports.SafeguardLookup
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(next ports.SafeguardLookup, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if next == nil {
		panic("safeguard.NewRedisCache: lookup is required")
	}
	if client == nil {
		panic("safeguard.NewRedisCache: redis client is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisCache{next: next, client: client, ttl: ttl, logger: logger}
}

// HasCertifiedSafeguard serves from cache when possible. A cache outage
// degrades to a direct lookup.
func (c *RedisCache) HasCertifiedSafeguard(ctx context.Context, providerID string) (bool, error) {
	key := cacheKey(providerID)
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached == "1", nil
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "safeguard cache read failed", "provider_id", providerID, "error", err)
	}

	certified, err := c.next.HasCertifiedSafeguard(ctx, providerID)
	if err != nil {
		return false, err
	}
	value := "0"
	if certified {
		value = "1"
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "safeguard cache write failed", "provider_id", providerID, "error", err)
	}
	return certified, nil
}

// Invalidate drops a provider's cached answer, e.g. after a certification change.
func (c *RedisCache) Invalidate(ctx context.Context, providerID string) error {
	if err := c.client.Del(ctx, cacheKey(providerID)).Err(); err != nil {
		return fmt.Errorf("invalidate safeguard cache: %w", err)
	}
	return nil
}

func cacheKey(providerID string) string {
	return cacheKeyPrefix + providerID
}
