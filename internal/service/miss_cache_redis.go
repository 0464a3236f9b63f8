package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMissCache shares misses between instances. Keys are stored hashed so
// raw tokens never land in redis.
type RedisMissCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisMissCache(client redis.UniversalClient, prefix string) *RedisMissCache {
	if prefix == "" {
		prefix = "miss:"
	}
	return &RedisMissCache{client: client, prefix: prefix}
}

func (c *RedisMissCache) Seen(ctx context.Context, key string) (bool, error) {
	err := c.client.Get(ctx, c.key(key)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisMissCache) Remember(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.key(key), "1", ttl).Err()
}

func (c *RedisMissCache) key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return c.prefix + hex.EncodeToString(sum[:])
}
