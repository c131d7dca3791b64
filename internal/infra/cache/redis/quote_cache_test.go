package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/domain/pricing"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *QuoteCache) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, &QuoteCache{Client: client, TTL: time.Hour}
}

func TestQuoteCacheRoundTrip(t *testing.T) {
	s, cache := setupCache(t)
	ctx := context.Background()
	date := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	q := pricing.PriceQuote{
		PropertyID:   "p1",
		Date:         date,
		OptimalPrice: 142,
		Factors:      pricing.Factors{DemandLevel: pricing.DemandHigh, Events: []string{"Web Summit"}},
	}
	require.NoError(t, cache.Put(ctx, q))
	assert.True(t, s.Exists("ratepilot:quote:p1:2026-11-03"))
	assert.Equal(t, time.Hour, s.TTL("ratepilot:quote:p1:2026-11-03"))

	got, ok, err := cache.Get(ctx, "p1", date.Add(9*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(142), got.OptimalPrice)
	assert.Equal(t, []string{"Web Summit"}, got.Factors.Events)
}

func TestQuoteCacheMissAndExpiry(t *testing.T) {
	s, cache := setupCache(t)
	ctx := context.Background()
	date := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)

	_, ok, err := cache.Get(ctx, "p1", date)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, pricing.PriceQuote{PropertyID: "p1", Date: date, OptimalPrice: 90}))
	s.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "p1", date)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuoteCacheCorruptValue(t *testing.T) {
	s, cache := setupCache(t)
	require.NoError(t, s.Set("ratepilot:quote:p1:2026-11-03", "{broken"))
	_, _, err := cache.Get(context.Background(), "p1", time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestQuoteCacheUnavailable(t *testing.T) {
	s, cache := setupCache(t)
	s.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
