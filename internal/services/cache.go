package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over Redis. A nil client turns every call into
// a miss, so callers need no Redis-enabled checks.
type Cache struct {
	rdb *redis.Client
}

// NewCache connects when Redis is enabled. A failed ping logs and returns a
// disabled cache.
func NewCache(cfg *config.RedisConfig) *Cache {
	if cfg == nil || !cfg.Enabled {
		return &Cache{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("[Cache] Redis unavailable at %s, caching disabled: %v", cfg.Addr, err)
		_ = rdb.Close()
		return &Cache{}
	}

	logger.Infof("[Cache] Redis cache connected at %s", cfg.Addr)
	return &Cache{rdb: rdb}
}

// NewCacheWithClient wraps an existing client.
func NewCacheWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetObject decodes key into dest. found is false on a miss.
func (c *Cache) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, exp).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
