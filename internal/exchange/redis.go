package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisCache caches resolved rates in Redis. Entries are bucketed by TTL so
// lookups close together in time share a key. A rate stored after its bucket
// was cached is seen from the next bucket on, so rates may lag by up to TTL.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: client, TTL: ttl}
}

// RateKey builds the cache key for a pair at a point in time.
func (c *RedisCache) RateKey(tenantID uuid.UUID, from, to string, at time.Time) string {
	bucket := at.Unix()
	if c.TTL > 0 {
		bucket = at.Truncate(c.TTL).Unix()
	}
	return fmt.Sprintf("fx:%s:%s:%s:%d", tenantID, from, to, bucket)
}

// GetRate implements Cache.
func (c *RedisCache) GetRate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time) (decimal.Decimal, bool, error) {
	val, err := c.Client.Get(ctx, c.RateKey(tenantID, from, to, at)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	rate, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("decode cached rate: %w", err)
	}
	return rate, true, nil
}

// SetRate implements Cache.
func (c *RedisCache) SetRate(ctx context.Context, tenantID uuid.UUID, from, to string, at time.Time, rate decimal.Decimal) error {
	return c.Client.Set(ctx, c.RateKey(tenantID, from, to, at), rate.String(), c.TTL).Err()
}
