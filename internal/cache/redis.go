// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/resilience"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisOpTimeout    = 2 * time.Second
	redisClearTimeout = 5 * time.Second
	redisScanCount    = 200

	// A dead Redis costs one timeout per operation; after this many in a
	// row the cache answers misses locally until the breaker tries Redis again.
	redisBreakerThreshold = 5
	redisBreakerReset     = 30 * time.Second
)

// RedisCache is a Redis-backed implementation of Cache.
// All keys live under KeyPrefix so Clear never touches foreign data.
type RedisCache struct {
	client  *redis.Client
	logger  zerolog.Logger
	breaker *resilience.CircuitBreaker
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// NewRedisCache creates a new Redis-backed cache and verifies the connection.
func NewRedisCache(cfg RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis cache")

	return newRedisCacheWithClient(client, logger), nil
}

func newRedisCacheWithClient(client *redis.Client, logger zerolog.Logger) *RedisCache {
	return &RedisCache{
		client:  client,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker("redis_cache", redisBreakerThreshold, redisBreakerReset),
	}
}

func isRedisNil(err error) bool { return errors.Is(err, redis.Nil) }

// do runs op through the breaker and logs failures other than a rejected call.
func (c *RedisCache) do(op, key string, fn func() error) error {
	err := c.breaker.Execute(fn, isRedisNil)
	if err != nil && !isRedisNil(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
		ev := c.logger.Warn().Err(err)
		if key != "" {
			ev = ev.Str("key", key)
		}
		ev.Msgf("redis %s failed", op)
	}
	return err
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	var val []byte
	err := c.do("get", key, func() error {
		var err error
		val, err = c.client.Get(ctx, KeyPrefix+key).Bytes()
		return err
	})
	if err != nil {
		c.stats.misses.Add(1)
		return nil, false
	}
	c.stats.hits.Add(1)
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	err := c.do("set", key, func() error {
		return c.client.Set(ctx, KeyPrefix+key, value, ttl).Err()
	})
	if err != nil {
		return
	}
	c.stats.sets.Add(1)
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	_ = c.do("delete", key, func() error {
		return c.client.Del(ctx, KeyPrefix+key).Err()
	})
}

// Clear removes every key under KeyPrefix.
func (c *RedisCache) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, redisClearTimeout)
	defer cancel()

	_ = c.do("clear", "", func() error {
		keys, err := c.keys(ctx)
		if err != nil {
			return err
		}
		for start := 0; start < len(keys); start += redisScanCount {
			end := min(start+redisScanCount, len(keys))
			if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (c *RedisCache) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	var keys []string
	_ = c.do("scan", "", func() error {
		var err error
		keys, err = c.keys(ctx)
		return err
	})
	return Stats{
		Backend:     config.CacheBackendRedis,
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Sets:        c.stats.sets.Load(),
		CurrentSize: len(keys),
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// HealthCheck checks if Redis is available.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
