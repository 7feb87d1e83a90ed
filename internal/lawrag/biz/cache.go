package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/utils/json"
)

// AnswerCacheConfig configures the answer cache.
type AnswerCacheConfig struct {
	// Enabled toggles caching.
	Enabled bool
	// TTL is the cache entry lifetime.
	TTL time.Duration
	// KeyPrefix prefixes all cache keys.
	KeyPrefix string
}

// AnswerCache caches final answers for text-mode requests in Redis.
// Document and image requests are never cached, their payload identity is
// unstable. Cache failures are logged and never fail a request.
type AnswerCache struct {
	redis  *goredis.Client
	config *AnswerCacheConfig
}

// NewAnswerCache creates an answer cache instance.
func NewAnswerCache(redis *goredis.Client, config *AnswerCacheConfig) *AnswerCache {
	if config == nil {
		config = &AnswerCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "lawrag:answer:",
		}
	}
	return &AnswerCache{
		redis:  redis,
		config: config,
	}
}

type cachedAnswer struct {
	Answer string `json:"answer"`
}

// cacheKey hashes language, mode and query into a stable key.
func (c *AnswerCache) cacheKey(lang store.Language, mode Mode, query string) string {
	hash := sha256.Sum256([]byte(string(lang) + "|" + string(mode) + "|" + query))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get returns the cached answer and whether it was found.
func (c *AnswerCache) Get(ctx context.Context, lang store.Language, mode Mode, query string) (string, bool) {
	if !c.config.Enabled || c.redis == nil {
		return "", false
	}

	key := c.cacheKey(lang, mode, query)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("failed to get from cache", "error", err.Error(), "key", key)
		}
		return "", false
	}

	var cached cachedAnswer
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warnw("failed to unmarshal cached answer", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return "", false
	}

	logger.Debugw("answer cache hit", "key", key, "answer_length", len(cached.Answer))
	return cached.Answer, true
}

// Set writes an answer into the cache. Empty answers are not cached.
func (c *AnswerCache) Set(ctx context.Context, lang store.Language, mode Mode, query, answer string) {
	if !c.config.Enabled || c.redis == nil || answer == "" {
		return
	}

	key := c.cacheKey(lang, mode, query)

	data, err := json.Marshal(cachedAnswer{Answer: answer})
	if err != nil {
		logger.Warnw("failed to marshal answer for caching", "error", err.Error())
		return
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", key)
		return
	}

	logger.Debugw("cached answer", "key", key, "ttl", c.config.TTL)
}
