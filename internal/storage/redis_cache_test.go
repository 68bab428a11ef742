package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = cache.Close() })

	return cache, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	type quote struct {
		Price     float64 `json:"price"`
		Available bool    `json:"available"`
	}

	err := cache.Set(ctx, "price:spot", quote{Price: 61234.12, Available: true}, time.Hour)
	require.NoError(t, err)

	var got quote
	found, err := cache.Get(ctx, "price:spot", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 61234.12, got.Price)
	assert.True(t, got.Available)
}

func TestRedisCache_MissReturnsFalse(t *testing.T) {
	cache, _ := newTestRedisCache(t)

	var got float64
	found, err := cache.Get(context.Background(), "price:hist:2024-01-01", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	err := cache.Set(ctx, "rates:usd", map[string]float64{"GBP": 0.78}, time.Minute)
	require.NoError(t, err)

	// miniredis advances expiry via FastForward instead of wall-clock time.
	mr.FastForward(2 * time.Minute)

	var got map[string]float64
	found, err := cache.Get(ctx, "rates:usd", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_CorruptValue(t *testing.T) {
	cache, mr := newTestRedisCache(t)

	require.NoError(t, mr.Set("bad", "{not json"))

	var got map[string]string
	found, err := cache.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisCache_Ping(t *testing.T) {
	cache, mr := newTestRedisCache(t)

	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
