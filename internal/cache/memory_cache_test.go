package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInvalidator запоминает опубликованные ключи
type fakeInvalidator struct {
	mu        sync.Mutex
	published []string
	handler   InvalidationHandler
	closed    bool
}

func (f *fakeInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, key)
	return nil
}

func (f *fakeInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	f.handler = handler
	return nil
}

func (f *fakeInvalidator) Close() error {
	f.closed = true
	return nil
}

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(Config{DefaultTTL: time.Minute}, nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again, "Кеш должен отдавать копию значения")

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, c.Set(ctx, "", nil, 0), ErrInvalidKey)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(Config{DefaultTTL: time.Minute, MaxTTL: 2 * time.Minute}, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("1"), 10*time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))

	now = now.Add(30 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.True(t, IsCacheMiss(err), "Запись с истёкшим TTL не читается")
	_, err = c.Get(ctx, "long")
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "long")
	assert.True(t, IsCacheMiss(err), "TTL ограничен MaxTTL")

	assert.Equal(t, 2, c.Purge())
	assert.Equal(t, int64(0), c.GetMetrics().TotalKeys)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	inv := &fakeInvalidator{}
	c := NewMemoryCache(Config{}, inv)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Invalidate(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
	assert.Equal(t, []string{"k"}, inv.published)

	t.Run("Remote invalidation", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "remote", []byte("v"), 0))
		require.NoError(t, ListenInvalidations(ctx, c, inv))
		require.NoError(t, inv.handler("remote"))

		exists, _ := c.Exists(ctx, "remote")
		assert.False(t, exists)
	})

	require.NoError(t, c.Close())
	assert.True(t, inv.closed)
	_, err = c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestMemoryCache_Metrics(t *testing.T) {
	c := NewMemoryCache(Config{}, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "nope")

	m := c.GetMetrics()
	assert.Equal(t, int64(3), m.TotalRequests)
	assert.Equal(t, int64(2), m.CacheHits)
	assert.Equal(t, int64(1), m.CacheMisses)
	assert.InDelta(t, 2.0/3.0, m.HitRatio, 1e-9)
	assert.Equal(t, int64(1), m.TotalKeys)
}
