package biz

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrag/ragserver/internal/apiserver/store"
)

// 辅助函数：创建测试用 Redis 客户端
func setupTestRedis(t *testing.T) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15, // 使用测试专用数据库
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis 不可用，跳过测试")
	}

	client.FlushDB(ctx)
	return client
}

func testCacheConfig() *QueryCacheConfig {
	return &QueryCacheConfig{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "test:rag:search:",
	}
}

func TestQueryCacheSetGet(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewQueryCache(client, testCacheConfig())
	ctx := context.Background()

	hits := []*store.SearchHit{
		{Text: "cached answer", Distance: 0.91},
		{Text: "second answer", Distance: 0.72},
	}

	require.NoError(t, cache.Set(ctx, "what is caching?", 2, hits))

	got, err := cache.Get(ctx, "what is caching?", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cached answer", got[0].Text)
	assert.InDelta(t, 0.91, got[0].Distance, 1e-6)
}

func TestQueryCacheMiss(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewQueryCache(client, testCacheConfig())

	// 未命中返回 (nil, nil)
	got, err := cache.Get(context.Background(), "never asked", 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryCacheLimitIsPartOfKey(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewQueryCache(client, testCacheConfig())
	ctx := context.Background()

	hits := []*store.SearchHit{{Text: "a", Distance: 0.5}}
	require.NoError(t, cache.Set(ctx, "question", 3, hits))

	// 同一问题不同 limit 是不同的缓存项
	got, err := cache.Get(ctx, "question", 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryCacheDisabled(t *testing.T) {
	cache := NewQueryCache(nil, &QueryCacheConfig{Enabled: false})
	ctx := context.Background()

	// 禁用时 Get/Set/Clear 都是安静的 no-op
	got, err := cache.Get(ctx, "question", 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, cache.Set(ctx, "question", 3, []*store.SearchHit{{Text: "x"}}))
	assert.NoError(t, cache.Clear(ctx))
}

func TestQueryCacheCorruptEntry(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	config := testCacheConfig()
	cache := NewQueryCache(client, config)
	ctx := context.Background()

	// 手工写入损坏数据
	key := cache.generateCacheKey("broken", 3)
	require.NoError(t, client.Set(ctx, key, "not json", time.Hour).Err())

	_, err := cache.Get(ctx, "broken", 3)
	require.Error(t, err)

	// 损坏条目应被删除
	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestQueryCacheClear(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewQueryCache(client, testCacheConfig())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "q1", 3, []*store.SearchHit{{Text: "a"}}))
	require.NoError(t, cache.Set(ctx, "q2", 3, []*store.SearchHit{{Text: "b"}}))

	require.NoError(t, cache.Clear(ctx))

	got, err := cache.Get(ctx, "q1", 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}
