package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCacheKey(t *testing.T) {
	key := QueryCacheKey("auth timeout", map[string]string{"language": "python"})
	assert.Contains(t, key, "query:")

	// Same inputs, same key.
	assert.Equal(t, key, QueryCacheKey("auth timeout", map[string]string{"language": "python"}))

	// Filter order must not matter.
	a := QueryCacheKey("q", map[string]string{"language": "go", "type": "function"})
	b := QueryCacheKey("q", map[string]string{"type": "function", "language": "go"})
	assert.Equal(t, a, b)

	// Different query or filter, different key.
	assert.NotEqual(t, key, QueryCacheKey("other query", map[string]string{"language": "python"}))
	assert.NotEqual(t, key, QueryCacheKey("auth timeout", map[string]string{"language": "go"}))
	assert.NotEqual(t, key, QueryCacheKey("auth timeout", nil))
}

func TestRedisCache(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	cache, err := NewRedisCache(redisURL)
	if err != nil {
		t.Skip("Redis not available")
	}
	defer cache.Close()

	ctx := context.Background()

	key := QueryCacheKey("test query", map[string]string{"language": "python"})
	value := `[{"score":1.0}]`

	require.NoError(t, cache.Set(ctx, key, value, 1*time.Minute))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// Missing keys read as empty, not as errors.
	got, err = cache.Get(ctx, "query:doesnotexist")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, cache.Delete(ctx, key))
	got, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisCacheFlush(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	cache, err := NewRedisCache(redisURL)
	if err != nil {
		t.Skip("Redis not available")
	}
	defer cache.Close()

	ctx := context.Background()

	k1 := QueryCacheKey("one", nil)
	k2 := QueryCacheKey("two", nil)
	require.NoError(t, cache.Set(ctx, k1, "a", time.Minute))
	require.NoError(t, cache.Set(ctx, k2, "b", time.Minute))

	require.NoError(t, cache.Flush(ctx))

	got, err := cache.Get(ctx, k1)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = cache.Get(ctx, k2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewRedisCacheInvalidURL(t *testing.T) {
	_, err := NewRedisCache("not-a-url")
	require.Error(t, err)
}
