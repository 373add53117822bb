// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Dashboard defaults mirror the year slider bounds of the public dashboard.
const (
	DefaultMinYear      = 1974
	DefaultMaxYear      = 2025
	DefaultYearFrom     = 1975
	DefaultYearTo       = 2024
	DefaultMaxPlotEdges = 1000
	DefaultRecordLimit  = 5000
)

// Default colors shared by the network graph and the map.
const (
	ColorExporter = "#1f77b4"
	ColorImporter = "#ff7f0e"
	ColorDefault  = "rgb(0,0,0)"
	ColorPair     = "#9467bd"
	ColorOther    = "grey"
	ColorLand     = "#a7c8a9"
)

// Defaults returns the configuration used when neither file nor ENV set a value.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:    "data",
		LogLevel:   "info",
		LogService: "citesnet",
		Database: DatabaseConfig{
			Path:         "citesnet.db",
			BusyTimeout:  5 * time.Second,
			MaxOpenConns: 4,
		},
		Ingest: IngestConfig{
			TradeGlob:     "trade/*.csv",
			CountriesCSV:  "countries.csv",
			VernacularCSV: "itis_vernacular.csv",
			BatchSize:     5000,
			Workers:       4,
		},
		Server: ServerFileConfig{
			ListenAddr:      fallbackListenAddr,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeaderBytes,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Cache: CacheConfig{
			Backend:    CacheBackendMemory,
			TTL:        10 * time.Minute,
			BadgerPath: "cache",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 120,
			Burst:             20,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		Dashboard: DashboardConfig{
			MinYear:      DefaultMinYear,
			MaxYear:      DefaultMaxYear,
			DefaultFrom:  DefaultYearFrom,
			DefaultTo:    DefaultYearTo,
			MaxPlotEdges: DefaultMaxPlotEdges,
			RecordLimit:  DefaultRecordLimit,
			Palette: Palette{
				Exporter: ColorExporter,
				Importer: ColorImporter,
				Default:  ColorDefault,
				Pair:     ColorPair,
				Other:    ColorOther,
				Land:     ColorLand,
			},
		},
		Site: SiteConfig{
			Title:        "CITES Trade Network",
			DashboardURL: "",
			ImagePath:    "",
			StaticDir:    "static",
			Maintainer:   "ydnadev",
			SourceURL:    "https://github.com/ydnadev/cites-network",
		},
	}
}
