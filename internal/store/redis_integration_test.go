//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/namecdn/internal/entry"
	"github.com/serroba/namecdn/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: getRedisAddr()})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

func TestRedisCacheRecordsIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	t.Run("serves cached entries after the backend forgets them", func(t *testing.T) {
		backend := store.NewMemoryStore()
		cached := store.NewRedisCacheRecords(backend, client, time.Minute)
		defer client.Del(ctx, "entry:rcache1")

		require.NoError(t, cached.Insert(ctx, entry.NewFileEntry("rcache1", "png", time.Now())))
		_, _ = backend.DeleteRecord(ctx, "rcache1")

		got, err := cached.Get(ctx, "rcache1")

		require.NoError(t, err)
		assert.Equal(t, entry.KindFile, got.Kind)
		assert.Equal(t, "png", got.Ext)
	})

	t.Run("delete invalidates the cache", func(t *testing.T) {
		backend := store.NewMemoryStore()
		cached := store.NewRedisCacheRecords(backend, client, time.Minute)

		require.NoError(t, cached.Insert(ctx, entry.NewURLEntry("rcache2", "https://a.com", time.Now())))

		deleted, err := cached.DeleteRecord(ctx, "rcache2")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = cached.Get(ctx, "rcache2")
		assert.ErrorIs(t, err, entry.ErrNotFound)
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	s := store.NewRateLimitRedisStore(client)
	defer client.Del(ctx, "ratelimit:itest")

	for want := int64(1); want <= 3; want++ {
		count, err := s.Record(ctx, "itest", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, want, count)
	}
}
