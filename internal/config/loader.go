// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// ConfigPath returns the YAML file this loader reads, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

func (l *Loader) track(key string) string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return key
}

func (l *Loader) envString(key, defaultVal string) string {
	return ParseString(l.track(key), defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	return ParseBool(l.track(key), defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	return ParseInt(l.track(key), defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	return ParseDuration(l.track(key), defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	return ParseFloat(l.track(key), defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	return ParseStringList(l.track(key), defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	// 1. Defaults
	cfg := Defaults()

	// 2. File (decoded on top of the defaults; absent keys keep their default)
	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	// 3. Environment (highest priority)
	l.mergeEnvConfig(&cfg)

	cfg.Version = l.version
	l.resolvePaths(&cfg)

	// 4. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file into dst with STRICT parsing.
// Unknown fields cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, dst *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	data = []byte(expandEnv(string(data)))

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// mergeEnvConfig merges CITESNET_* environment variables into cfg.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("DATA", cfg.DataDir)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("LOG_SERVICE", cfg.LogService)
	cfg.MetricsAddr = l.envString("METRICS_LISTEN", cfg.MetricsAddr)

	cfg.Database.Path = l.envString("DB_PATH", cfg.Database.Path)
	cfg.Database.BusyTimeout = l.envDuration("DB_BUSY_TIMEOUT", cfg.Database.BusyTimeout)
	cfg.Database.MaxOpenConns = l.envInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)

	cfg.Ingest.TradeGlob = l.envString("INGEST_TRADE_GLOB", cfg.Ingest.TradeGlob)
	cfg.Ingest.CountriesCSV = l.envString("INGEST_COUNTRIES_CSV", cfg.Ingest.CountriesCSV)
	cfg.Ingest.VernacularCSV = l.envString("INGEST_VERNACULAR_CSV", cfg.Ingest.VernacularCSV)
	cfg.Ingest.BatchSize = l.envInt("INGEST_BATCH_SIZE", cfg.Ingest.BatchSize)
	cfg.Ingest.Workers = l.envInt("INGEST_WORKERS", cfg.Ingest.Workers)

	cfg.Server.ListenAddr = l.envString("LISTEN", cfg.Server.ListenAddr)

	cfg.Cache.Backend = strings.ToLower(l.envString("CACHE_BACKEND", cfg.Cache.Backend))
	cfg.Cache.TTL = l.envDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.BadgerPath = l.envString("BADGER_PATH", cfg.Cache.BadgerPath)

	cfg.RateLimit.Enabled = l.envBool("RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt("RATELIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.Burst = l.envInt("RATELIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.Whitelist = l.envList("RATELIMIT_WHITELIST", cfg.RateLimit.Whitelist)
	cfg.RateLimit.TrustedProxies = l.envList("RATELIMIT_TRUSTED_PROXIES", cfg.RateLimit.TrustedProxies)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = strings.ToLower(l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter))
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	cfg.Dashboard.MaxPlotEdges = l.envInt("MAX_PLOT_EDGES", cfg.Dashboard.MaxPlotEdges)
	cfg.Dashboard.RecordLimit = l.envInt("RECORD_LIMIT", cfg.Dashboard.RecordLimit)

	cfg.Site.DashboardURL = l.envString("DASHBOARD_URL", cfg.Site.DashboardURL)
	cfg.Site.ImagePath = l.envString("IMAGE_PATH", cfg.Site.ImagePath)
	cfg.Site.StaticDir = l.envString("STATIC_DIR", cfg.Site.StaticDir)
}

// resolvePaths makes DataDir absolute and anchors relative data paths in it.
func (l *Loader) resolvePaths(cfg *AppConfig) {
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Database.Path = resolveIn(cfg.DataDir, cfg.Database.Path)
	cfg.Ingest.TradeGlob = resolveIn(cfg.DataDir, cfg.Ingest.TradeGlob)
	cfg.Ingest.CountriesCSV = resolveIn(cfg.DataDir, cfg.Ingest.CountriesCSV)
	cfg.Ingest.VernacularCSV = resolveIn(cfg.DataDir, cfg.Ingest.VernacularCSV)
	cfg.Cache.BadgerPath = resolveIn(cfg.DataDir, cfg.Cache.BadgerPath)
	cfg.Site.StaticDir = resolveIn(cfg.DataDir, cfg.Site.StaticDir)
}

func resolveIn(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// LoadFileConfig loads a YAML config file on top of the defaults without applying env overrides.
func LoadFileConfig(path string) (AppConfig, error) {
	cfg := Defaults()
	err := NewLoader(path, "").loadFile(path, &cfg)
	return cfg, err
}
