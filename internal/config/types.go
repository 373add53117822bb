// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully resolved runtime configuration.
// The yaml tags double as the schema of the config file.
type AppConfig struct {
	Version    string `yaml:"-"`
	DataDir    string `yaml:"dataDir"`
	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	Database    DatabaseConfig   `yaml:"database"`
	Ingest      IngestConfig     `yaml:"ingest"`
	Server      ServerFileConfig `yaml:"server"`
	MetricsAddr string           `yaml:"metricsAddr"`
	Cache       CacheConfig      `yaml:"cache"`
	RateLimit   RateLimitConfig  `yaml:"rateLimit"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Dashboard   DashboardConfig  `yaml:"dashboard"`
	Site        SiteConfig       `yaml:"site"`
}

// DatabaseConfig configures the embedded SQLite trade store.
type DatabaseConfig struct {
	// Path is the database file. Relative paths are resolved against DataDir.
	Path         string        `yaml:"path"`
	BusyTimeout  time.Duration `yaml:"busyTimeout"`
	MaxOpenConns int           `yaml:"maxOpenConns"`
}

// IngestConfig points at the CSV inputs loaded by `citesnet ingest`.
type IngestConfig struct {
	TradeGlob     string `yaml:"tradeGlob"`
	CountriesCSV  string `yaml:"countriesCSV"`
	VernacularCSV string `yaml:"vernacularCSV"`
	BatchSize     int    `yaml:"batchSize"`
	Workers       int    `yaml:"workers"`
}

// ServerFileConfig holds the HTTP server settings from the config file.
type ServerFileConfig struct {
	ListenAddr      string        `yaml:"listenAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
	CacheBackendNone   = "none"
)

// CacheConfig selects and tunes the query result cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	BadgerPath    string        `yaml:"badgerPath"`
}

// RateLimitConfig configures request throttling of the expensive query endpoints.
type RateLimitConfig struct {
	Enabled           bool     `yaml:"enabled"`
	RequestsPerMinute int      `yaml:"requestsPerMinute"`
	Burst             int      `yaml:"burst"`
	Whitelist         []string `yaml:"whitelist"`
	// TrustedProxies lists the peers whose X-Forwarded-For header is honoured.
	TrustedProxies []string `yaml:"trustedProxies"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// DashboardConfig holds the control bounds and plot palette of the dashboard.
type DashboardConfig struct {
	MinYear      int     `yaml:"minYear"`
	MaxYear      int     `yaml:"maxYear"`
	DefaultFrom  int     `yaml:"defaultFrom"`
	DefaultTo    int     `yaml:"defaultTo"`
	MaxPlotEdges int     `yaml:"maxPlotEdges"`
	RecordLimit  int     `yaml:"recordLimit"`
	Palette      Palette `yaml:"palette"`
}

// Palette holds the colors used by the graph and the map.
type Palette struct {
	Exporter string `yaml:"exporter"`
	Importer string `yaml:"importer"`
	Default  string `yaml:"default"`
	Pair     string `yaml:"pair"`
	Other    string `yaml:"other"`
	Land     string `yaml:"land"`
}

// SiteConfig carries the page chrome and attribution details.
// ImagePath is a file under StaticDir, which is served under /static/, or an
// absolute http(s) URL. A relative StaticDir is resolved against DataDir.
type SiteConfig struct {
	Title        string `yaml:"title"`
	DashboardURL string `yaml:"dashboardURL"`
	ImagePath    string `yaml:"imagePath"`
	StaticDir    string `yaml:"staticDir"`
	Maintainer   string `yaml:"maintainer"`
	SourceURL    string `yaml:"sourceURL"`
}
