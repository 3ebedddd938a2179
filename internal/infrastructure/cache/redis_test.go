package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

// TestRedisCache_RoundTrip runs against a real server when GIZIBUNDA_TEST_REDIS_URL is set
func TestRedisCache_RoundTrip(t *testing.T) {
	redisURL := os.Getenv("GIZIBUNDA_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("GIZIBUNDA_TEST_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cache, err := NewRedisCache(ctx, redisURL)
	require.NoError(t, err)
	defer cache.Close()

	key := "test:" + t.Name()
	defer cache.Delete(ctx, key)

	_, err = cache.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, []byte(`{"fdcId":1}`), time.Minute))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"fdcId":1}`, string(got))

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, key))
	exists, err = cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
