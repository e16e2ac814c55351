package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when REDIS_TEST_ADDR is set.
func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s := NewWithClient(redis.NewClient(&redis.Options{Addr: addr, DB: 15}), time.Minute)
	require.NoError(t, s.Ping(context.Background()))
	t.Cleanup(func() {
		_ = s.rdb.FlushDB(context.Background()).Err()
		_ = s.Close()
	})
	return s
}

func TestCategoriesCache(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b, err := s.GetCategories(ctx)
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, s.SetCategories(ctx, []byte(`[{"id":"c1","name":"Mystery"}]`)))
	b, err = s.GetCategories(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1","name":"Mystery"}]`, string(b))

	ttl, err := s.rdb.TTL(ctx, categoriesKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.InvalidateCategories(ctx))
	b, err = s.GetCategories(ctx)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestCategoryCounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCategoryCount(ctx, "c1", 3))
	require.NoError(t, s.SetCategoryCount(ctx, "c2", 0))
	require.NoError(t, s.SetCategoryCount(ctx, "c1", 4))

	counts, err := s.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"c1": 4, "c2": 0}, counts)
}
