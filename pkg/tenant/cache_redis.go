package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache stores tenants in Redis so multiple service instances share one
// directory cache. Cache errors degrade to misses; the directory backend
// remains the source of truth.
type redisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache creates a Redis-backed tenant cache. Keys are namespaced
// under the given prefix ("tenant" if empty).
func NewRedisCache(client redis.UniversalClient, keyPrefix string) Cache {
	if keyPrefix == "" {
		keyPrefix = "tenant"
	}
	return &redisCache{client: client, keyPrefix: keyPrefix}
}

func (c *redisCache) key(slug string) string {
	return c.keyPrefix + ":" + slug
}

func (c *redisCache) Get(ctx context.Context, slug string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		// Corrupted entry, drop it so the next lookup repopulates.
		_ = c.client.Del(ctx, c.key(slug)).Err()
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(slug), raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, slug string) {
	_ = c.client.Del(ctx, c.key(slug)).Err()
}

func (c *redisCache) Close() error {
	// The client is shared and owned by the caller.
	return nil
}
