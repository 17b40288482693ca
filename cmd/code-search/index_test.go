package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphy/code-search/internal/cache"
)

func TestInvalidateQueryCache(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	c, err := cache.NewRedisCache(redisURL)
	if err != nil {
		t.Skip("Redis not available")
	}
	defer c.Close()

	ctx := context.Background()
	key := cache.QueryCacheKey("stale query", map[string]string{"language": "python"})
	require.NoError(t, c.Set(ctx, key, `[{"score":1.0}]`, time.Minute))

	invalidateQueryCache(ctx, redisURL)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInvalidateQueryCacheUnreachable(t *testing.T) {
	// Must not panic or fail the caller when Redis is down.
	invalidateQueryCache(context.Background(), "redis://127.0.0.1:1")
}
