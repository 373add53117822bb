// SPDX-License-Identifier: MIT

// Package cache provides the query result cache with memory, Redis and Badger backends.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/rs/zerolog"
)

// KeyPrefix namespaces every key written by shared backends.
const KeyPrefix = "citesnet:"

// Cache provides thread-safe caching of serialized values with expiration support.
type Cache interface {
	// Get retrieves a value from the cache. Reports false if not found or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores a value in the cache with the specified TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string)
	// Clear removes all values from the cache.
	Clear(ctx context.Context)
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases the backend.
	Close() error
}

// Stats holds cache performance metrics.
type Stats struct {
	Backend     string
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

// New builds the backend selected by cfg.Backend.
// An unreachable Redis falls back to the memory cache so the service still starts.
func New(cfg config.CacheConfig, logger zerolog.Logger) (Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return NewNoOpCache(), nil
	case config.CacheBackendRedis:
		c, err := NewRedisCache(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "cache.redis_fallback").
				Msg("redis unavailable, falling back to in-memory cache")
			return NewMemoryCache(time.Minute), nil
		}
		return c, nil
	case config.CacheBackendBadger:
		c, err := NewBadgerCache(cfg.BadgerPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		return c, nil
	case config.CacheBackendMemory, "":
		return NewMemoryCache(time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// GetJSON looks up key and decodes it into dst. Undecodable entries count as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	c.Set(ctx, key, raw, ttl)
	return nil
}

// noOpCache is a cache that does nothing (useful for disabling caching).
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (noOpCache) Set(context.Context, string, []byte, time.Duration) {}

func (noOpCache) Delete(context.Context, string) {}

func (noOpCache) Clear(context.Context) {}

func (noOpCache) Stats() Stats { return Stats{Backend: config.CacheBackendNone} }

func (noOpCache) Close() error { return nil }
