package service

import (
	"context"
	"sync"
	"time"
)

// MissCache remembers lookups that found nothing so repeated misses skip the
// database. Keys are opaque; a hit only means "known absent until ttl".
type MissCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, ttl time.Duration) error
}

type MemoryMissCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryMissCache() *MemoryMissCache {
	return &MemoryMissCache{entries: make(map[string]time.Time), now: time.Now}
}

func (c *MemoryMissCache) Seen(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiresAt, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if !c.now().Before(expiresAt) {
		delete(c.entries, key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryMissCache) Remember(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, exp := range c.entries {
		if !now.Before(exp) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = now.Add(ttl)
	return nil
}
