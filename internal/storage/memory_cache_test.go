package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}

	err := cache.Set(ctx, "quote:latest", payload{Name: "bitcoin", Price: 42000.5}, time.Minute)
	require.NoError(t, err)

	var got payload
	found, err := cache.Get(ctx, "quote:latest", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bitcoin", got.Name)
	assert.Equal(t, 42000.5, got.Price)
}

func TestMemoryCache_Miss(t *testing.T) {
	cache := NewMemoryCache()

	var got string
	found, err := cache.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	err := cache.Set(ctx, "short-lived", "value", 10*time.Millisecond)
	require.NoError(t, err)

	var got string
	found, err := cache.Get(ctx, "short-lived", &got)
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)

	found, err = cache.Get(ctx, "short-lived", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	err := cache.Set(ctx, "pinned", 123, 0)
	require.NoError(t, err)

	var got int
	found, err := cache.Get(ctx, "pinned", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 123, got)
}

func TestMemoryCache_Overwrite(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "first", time.Minute))
	require.NoError(t, cache.Set(ctx, "k", "second", time.Minute))

	var got string
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got)
}
