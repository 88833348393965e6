package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache is a read-through cache seam in front of a Directory. Only positive
// lookups are cached; absence and transient failures always hit the backend
// so a deleted tenant never lingers as a phantom.
type Cache interface {
	// Get retrieves a tenant from cache by slug.
	Get(ctx context.Context, slug string) (*Tenant, bool)

	// Set stores a tenant in cache with the given TTL.
	Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration)

	// Delete removes a tenant from cache.
	Delete(ctx context.Context, slug string)

	// Close releases any resources held by the cache.
	Close() error
}

// CachedDirectory wraps a Directory with a Cache.
type CachedDirectory struct {
	dir   Directory
	cache Cache
	ttl   time.Duration
}

// NewCachedDirectory returns a Directory that consults cache before backend.
func NewCachedDirectory(dir Directory, cache Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{dir: dir, cache: cache, ttl: ttl}
}

func (d *CachedDirectory) BySlug(ctx context.Context, slug string) (*Tenant, error) {
	if t, ok := d.cache.Get(ctx, slug); ok {
		return t, nil
	}

	t, err := d.dir.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	d.cache.Set(ctx, slug, t, d.ttl)
	return t, nil
}

// Invalidate drops a slug from the cache, e.g. after tenant deletion.
func (d *CachedDirectory) Invalidate(ctx context.Context, slug string) {
	d.cache.Delete(ctx, slug)
}

type memoryCacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// memoryCache is a TTL map cache with a background janitor.
type memoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryCacheItem
	stop   chan struct{}
	done   chan struct{}
	closed bool
}

// NewMemoryCache creates an in-memory tenant cache with periodic cleanup of
// expired entries.
func NewMemoryCache() Cache {
	c := &memoryCache{
		items: make(map[string]memoryCacheItem),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *memoryCache) Get(ctx context.Context, slug string) (*Tenant, bool) {
	c.mu.RLock()
	item, ok := c.items[slug]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.Delete(ctx, slug)
		return nil, false
	}
	return item.tenant, true
}

func (c *memoryCache) Set(_ context.Context, slug string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[slug] = memoryCacheItem{tenant: t, expiresAt: time.Now().Add(ttl)}
}

func (c *memoryCache) Delete(_ context.Context, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, slug)
}

func (c *memoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for slug, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, slug)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// noopCache disables caching; every lookup hits the backend.
type noopCache struct{}

// NewNoopCache returns a cache that stores nothing. Useful in tests and for
// deployments where staleness is unacceptable.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (*Tenant, bool)         { return nil, false }
func (noopCache) Set(context.Context, string, *Tenant, time.Duration) {}
func (noopCache) Delete(context.Context, string)                      {}
func (noopCache) Close() error                                        { return nil }
