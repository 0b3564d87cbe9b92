package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pageKeyPrefix  = "catalog:plans:" // catalog:plans:{encoded query}
	DefaultPageTTL = 2 * time.Minute
)

// PageCache stores listing pages. Misses and write failures are not errors.
type PageCache interface {
	Get(ctx context.Context, key string) (*PlanPage, bool)
	Set(ctx context.Context, key string, page *PlanPage)
	Invalidate(ctx context.Context) error
}

// RedisPageCache keeps JSON-encoded pages in Redis with a TTL.
type RedisPageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisPageCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisPageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPageCache{client: client, ttl: ttl, logger: logger.Named("catalog_cache")}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (*PlanPage, bool) {
	data, err := c.client.Get(ctx, c.pageKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var page PlanPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

func (c *RedisPageCache) Set(ctx context.Context, key string, page *PlanPage) {
	data, err := json.Marshal(page)
	if err != nil {
		c.logger.Warn("marshal page", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.pageKey(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("write page", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every cached page.
func (c *RedisPageCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, pageKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete catalog keys: %w", err)
	}
	return nil
}

func (c *RedisPageCache) pageKey(key string) string {
	return fmt.Sprintf("%s%s", pageKeyPrefix, key)
}
