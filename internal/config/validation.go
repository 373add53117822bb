// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"
)

// Validate reports every inconsistency in cfg at once, joined with errors.Join.
// The returned error matches ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
			add("logLevel %q is not a known level", cfg.LogLevel)
		}
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		add("database.path must not be empty")
	}
	if cfg.Database.MaxOpenConns < 1 {
		add("database.maxOpenConns must be >= 1, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Ingest.BatchSize < 1 {
		add("ingest.batchSize must be >= 1, got %d", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.Workers < 1 {
		add("ingest.workers must be >= 1, got %d", cfg.Ingest.Workers)
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendNone, CacheBackendBadger:
	case CacheBackendRedis:
		if cfg.Cache.RedisAddr == "" {
			add("cache.redisAddr is required for the redis backend")
		}
	default:
		add("cache.backend %q must be one of memory, redis, badger, none", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL < 0 {
		add("cache.ttl must not be negative")
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute < 1 {
		add("rateLimit.requestsPerMinute must be >= 1 when rate limiting is enabled")
	}
	for _, list := range []struct {
		name    string
		entries []string
	}{{"whitelist", cfg.RateLimit.Whitelist}, {"trustedProxies", cfg.RateLimit.TrustedProxies}} {
		for _, e := range list.entries {
			if !validAddrOrPrefix(e) {
				add("rateLimit.%s entry %q is neither an IP nor a CIDR", list.name, e)
			}
		}
	}

	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate must be within [0,1], got %g", cfg.Telemetry.SamplingRate)
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter %q must be grpc or http", cfg.Telemetry.Exporter)
		}
	}

	d := cfg.Dashboard
	if d.MinYear > d.MaxYear {
		add("dashboard.minYear %d is after dashboard.maxYear %d", d.MinYear, d.MaxYear)
	}
	if d.DefaultFrom > d.DefaultTo {
		add("dashboard.defaultFrom %d is after dashboard.defaultTo %d", d.DefaultFrom, d.DefaultTo)
	}
	if d.DefaultFrom < d.MinYear || d.DefaultTo > d.MaxYear {
		add("dashboard default years %d-%d fall outside %d-%d", d.DefaultFrom, d.DefaultTo, d.MinYear, d.MaxYear)
	}
	if d.MaxPlotEdges < 1 {
		add("dashboard.maxPlotEdges must be >= 1, got %d", d.MaxPlotEdges)
	}
	if d.RecordLimit < 1 {
		add("dashboard.recordLimit must be >= 1, got %d", d.RecordLimit)
	}

	return errors.Join(errs...)
}

func validAddrOrPrefix(s string) bool {
	s = strings.TrimSpace(s)
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
