package wordsource

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	util "github.com/CodeAndHammer/rootword/internal/util"
)

// RedisCache shares verdicts between instances. Every successful read
// refreshes the key's TTL.
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, prefix: strings.Trim(prefix, ":"), ttl: ttl}
}

func (c *RedisCache) Key(word string) string {
	if c.prefix == "" {
		return "word:" + word
	}
	return c.prefix + ":word:" + word
}

func (c *RedisCache) Get(ctx context.Context, word string) (bool, bool) {
	if c.rdb == nil {
		return false, false
	}
	val, err := c.rdb.GetEx(ctx, c.Key(word), c.ttl).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			util.Logger(ctx).Warn().Err(err).Str("word", word).Msg("validation cache read failed")
		}
		return false, false
	}
	return val == "1", true
}

func (c *RedisCache) Set(ctx context.Context, word string, valid bool) {
	if c.rdb == nil {
		return
	}
	val := "0"
	if valid {
		val = "1"
	}
	if err := c.rdb.Set(ctx, c.Key(word), val, c.ttl).Err(); err != nil {
		util.Logger(ctx).Warn().Err(err).Str("word", word).Msg("validation cache write failed")
	}
}
