package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck/pkg/tenant"
)

// countingDirectory records how many times the backend was consulted.
type countingDirectory struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant
	calls   int
	err     error
}

func newCountingDirectory(tenants ...*tenant.Tenant) *countingDirectory {
	d := &countingDirectory{tenants: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		d.tenants[t.Slug] = t
	}
	return d
}

func (d *countingDirectory) BySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	t, ok := d.tenants[slug]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (d *countingDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("set then get", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewMemoryCache()
		t.Cleanup(func() { _ = cache.Close() })

		want := newTestTenant("acme")
		cache.Set(context.Background(), "acme", want, time.Minute)

		got, ok := cache.Get(context.Background(), "acme")
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewMemoryCache()
		t.Cleanup(func() { _ = cache.Close() })

		cache.Set(context.Background(), "acme", newTestTenant("acme"), -time.Second)

		_, ok := cache.Get(context.Background(), "acme")
		assert.False(t, ok)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewMemoryCache()
		t.Cleanup(func() { _ = cache.Close() })

		cache.Set(context.Background(), "acme", newTestTenant("acme"), time.Minute)
		cache.Delete(context.Background(), "acme")

		_, ok := cache.Get(context.Background(), "acme")
		assert.False(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewMemoryCache()
		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())
	})
}

func TestCachedDirectory(t *testing.T) {
	t.Parallel()

	t.Run("caches positive lookups", func(t *testing.T) {
		t.Parallel()

		acme := newTestTenant("acme")
		backend := newCountingDirectory(acme)
		cache := tenant.NewMemoryCache()
		t.Cleanup(func() { _ = cache.Close() })

		dir := tenant.NewCachedDirectory(backend, cache, time.Minute)

		for range 3 {
			got, err := dir.BySlug(context.Background(), "acme")
			require.NoError(t, err)
			assert.Equal(t, acme, got)
		}

		assert.Equal(t, 1, backend.callCount())
	})

	t.Run("does not cache absence", func(t *testing.T) {
		t.Parallel()

		backend := newCountingDirectory()
		dir := tenant.NewCachedDirectory(backend, tenant.NewNoopCache(), time.Minute)

		for range 2 {
			_, err := dir.BySlug(context.Background(), "ghost")
			assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		}

		assert.Equal(t, 2, backend.callCount())
	})

	t.Run("propagates transient failures untouched", func(t *testing.T) {
		t.Parallel()

		backend := newCountingDirectory()
		backend.err = errors.New("connection refused")
		dir := tenant.NewCachedDirectory(backend, tenant.NewNoopCache(), time.Minute)

		_, err := dir.BySlug(context.Background(), "acme")
		require.Error(t, err)
		assert.NotErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("invalidate forces backend lookup", func(t *testing.T) {
		t.Parallel()

		acme := newTestTenant("acme")
		backend := newCountingDirectory(acme)
		cache := tenant.NewMemoryCache()
		t.Cleanup(func() { _ = cache.Close() })

		dir := tenant.NewCachedDirectory(backend, cache, time.Minute)

		_, err := dir.BySlug(context.Background(), "acme")
		require.NoError(t, err)

		dir.Invalidate(context.Background(), "acme")

		_, err = dir.BySlug(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, 2, backend.callCount())
	})
}
