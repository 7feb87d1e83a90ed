package biz

import (
	"context"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
)

func setupTestRedis(t *testing.T) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("redis not available, skipping")
	}
	client.FlushDB(ctx)

	return client
}

func enabledCacheConfig() *AnswerCacheConfig {
	return &AnswerCacheConfig{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "test:answer:",
	}
}

func TestAnswerCacheKey(t *testing.T) {
	cache := NewAnswerCache(nil, enabledCacheConfig())

	key1 := cache.cacheKey(store.LanguageRU, ModeBase, "вопрос")
	key2 := cache.cacheKey(store.LanguageRU, ModeBase, "вопрос")
	assert.Equal(t, key1, key2)

	// any of language, mode, query changes the key
	assert.NotEqual(t, key1, cache.cacheKey(store.LanguageKG, ModeBase, "вопрос"))
	assert.NotEqual(t, key1, cache.cacheKey(store.LanguageRU, ModePro, "вопрос"))
	assert.NotEqual(t, key1, cache.cacheKey(store.LanguageRU, ModeBase, "другой вопрос"))

	assert.True(t, strings.HasPrefix(key1, "test:answer:"))
	assert.Len(t, strings.TrimPrefix(key1, "test:answer:"), 64)
}

func TestAnswerCacheNilConfigDefaults(t *testing.T) {
	cache := NewAnswerCache(nil, nil)
	assert.False(t, cache.config.Enabled)
	assert.Equal(t, 1*time.Hour, cache.config.TTL)
	assert.Equal(t, "lawrag:answer:", cache.config.KeyPrefix)
}

func TestAnswerCacheDisabled(t *testing.T) {
	cache := NewAnswerCache(nil, &AnswerCacheConfig{Enabled: false})
	ctx := context.Background()

	cache.Set(ctx, store.LanguageRU, ModeBase, "q", "answer")
	_, ok := cache.Get(ctx, store.LanguageRU, ModeBase, "q")
	assert.False(t, ok)
}

func TestAnswerCacheUnreachableRedis(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	cache := NewAnswerCache(client, enabledCacheConfig())
	ctx := context.Background()

	// redis failures degrade to a miss, never an error
	answer, ok := cache.Get(ctx, store.LanguageRU, ModeBase, "q")
	assert.False(t, ok)
	assert.Empty(t, answer)

	cache.Set(ctx, store.LanguageRU, ModeBase, "q", "answer")
}

func TestAnswerCacheSetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewAnswerCache(client, enabledCacheConfig())
	ctx := context.Background()

	cache.Set(ctx, store.LanguageRU, ModePro, "вопрос", "ответ")

	answer, ok := cache.Get(ctx, store.LanguageRU, ModePro, "вопрос")
	require.True(t, ok)
	assert.Equal(t, "ответ", answer)

	// the entry is invisible to other languages
	_, ok = cache.Get(ctx, store.LanguageKG, ModePro, "вопрос")
	assert.False(t, ok)
}

func TestAnswerCacheSkipsEmptyAnswer(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewAnswerCache(client, enabledCacheConfig())
	ctx := context.Background()

	cache.Set(ctx, store.LanguageRU, ModeBase, "q", "")
	_, ok := cache.Get(ctx, store.LanguageRU, ModeBase, "q")
	assert.False(t, ok)
}

func TestAnswerCacheDeletesCorruptEntry(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewAnswerCache(client, enabledCacheConfig())
	ctx := context.Background()

	key := cache.cacheKey(store.LanguageRU, ModeBase, "q")
	require.NoError(t, client.Set(ctx, key, "{not json", time.Hour).Err())

	_, ok := cache.Get(ctx, store.LanguageRU, ModeBase, "q")
	assert.False(t, ok)

	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "corrupt entry must be deleted")
}
