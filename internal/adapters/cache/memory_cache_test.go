package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Chance101/email-agent/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	cache := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(cache.Stop)
	return cache
}

func entry(messageID string, ttl time.Duration) *core.AssessmentEntry {
	return &core.AssessmentEntry{
		MessageID:        messageID,
		ImportanceScore:  0.7,
		RequiresResponse: true,
		Action:           "show",
		AssessedAt:       time.Now(),
		ExpiresAt:        time.Now().Add(ttl),
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, entry("m1", time.Hour)))

	got, err := cache.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MessageID)
	assert.InDelta(t, 0.7, got.ImportanceScore, 1e-9)
}

func TestMemoryCacheGetMissing(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheGetExpired(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, entry("m1", -time.Minute)))

	_, err := cache.Get(ctx, "m1")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryCacheDelete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, entry("m1", time.Hour)))
	require.NoError(t, cache.Delete(ctx, "m1"))

	_, err := cache.Get(ctx, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheCleanupDropsExpiredOnly(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, entry("live", time.Hour)))
	require.NoError(t, cache.Set(ctx, entry("dead", -time.Minute)))

	require.NoError(t, cache.Cleanup(ctx))

	_, err := cache.Get(ctx, "live")
	assert.NoError(t, err)
	_, err = cache.Get(ctx, "dead")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheGetReturnsCopy(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, entry("m1", time.Hour)))

	first, err := cache.Get(ctx, "m1")
	require.NoError(t, err)
	first.ImportanceScore = 0.0

	second, err := cache.Get(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, second.ImportanceScore, 1e-9)
}
