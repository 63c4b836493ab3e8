package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// DefaultVideoCacheTTL bounds how long a cached video detail is served.
const DefaultVideoCacheTTL = 5 * time.Minute

const (
	videoKeyPattern = "catalog:video:*"
	scanBatchSize   = 500
)

// VideoCache is a cache-aside store for rendered video details.
type VideoCache interface {
	GetVideo(ctx context.Context, videoID string) ([]byte, error)
	SetVideo(ctx context.Context, videoID string, data interface{}) error
	InvalidateVideo(ctx context.Context, videoID string) error
	InvalidateAll(ctx context.Context) error
}

// RedisCache implements VideoCache on Redis. A RedisCache without a client
// is valid: every lookup misses and every write is dropped.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to redisURL. An empty URL, an invalid URL or an
// unreachable server disables caching instead of failing startup.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) *RedisCache {
	log := logger.Named("cache")
	if ttl <= 0 {
		ttl = DefaultVideoCacheTTL
	}

	if redisURL == "" {
		log.Info("No Redis URL configured, caching disabled")
		return &RedisCache{ttl: ttl}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("Invalid Redis URL, caching disabled", zap.Error(err))
		return &RedisCache{ttl: ttl}
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis connection failed, caching disabled", zap.Error(err))
		_ = rdb.Close()
		return &RedisCache{ttl: ttl}
	}

	log.Info("Redis connected, caching enabled", zap.Duration("ttl", ttl))
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultVideoCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is attached.
func (c *RedisCache) Enabled() bool {
	return c.rdb != nil
}

// Ping checks the connection. A disabled cache is always healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// GetVideo retrieves a cached video detail. It returns nil when not cached.
func (c *RedisCache) GetVideo(ctx context.Context, videoID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, videoKey(videoID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

// SetVideo stores a video detail.
func (c *RedisCache) SetVideo(ctx context.Context, videoID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, videoKey(videoID), b, c.ttl).Err()
}

// InvalidateVideo removes a video detail from the cache.
func (c *RedisCache) InvalidateVideo(ctx context.Context, videoID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, videoKey(videoID)).Err()
}

// InvalidateAll removes every cached video detail. Details embed related
// videos, so a change to many scores reaches beyond the rescored videos' own
// keys.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, videoKeyPattern, scanBatchSize).Iterator()
	keys := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatchSize {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}

// Close shuts down the Redis connection.
func (c *RedisCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func videoKey(videoID string) string {
	return fmt.Sprintf("catalog:video:%s", videoID)
}
