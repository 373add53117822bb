// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"
	"time"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header's keys and values
	MaxHeaderBytes int

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20 // 1 MB
	defaultShutdownTimeout = 15 * time.Second
	minShutdownTimeout     = 3 * time.Second
	fallbackListenAddr     = ":8088"
)

// ParseServerConfigForApp resolves server config with explicit precedence:
// ENV > AppConfig (YAML + merged defaults) > built-in default.
func ParseServerConfigForApp(cfg AppConfig) ServerConfig {
	s := cfg.Server
	out := ServerConfig{
		ListenAddr:      s.ListenAddr,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		IdleTimeout:     s.IdleTimeout,
		MaxHeaderBytes:  s.MaxHeaderBytes,
		ShutdownTimeout: s.ShutdownTimeout,
	}
	if strings.TrimSpace(out.ListenAddr) == "" {
		out.ListenAddr = fallbackListenAddr
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = defaultReadTimeout
	}
	if out.WriteTimeout < 0 {
		out.WriteTimeout = defaultWriteTimeout
	}
	if out.IdleTimeout <= 0 {
		out.IdleTimeout = defaultIdleTimeout
	}
	if out.MaxHeaderBytes <= 0 {
		out.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = defaultShutdownTimeout
	}

	out.ReadTimeout = ParseDuration(EnvPrefix+"SERVER_READ_TIMEOUT", out.ReadTimeout)
	out.WriteTimeout = ParseDuration(EnvPrefix+"SERVER_WRITE_TIMEOUT", out.WriteTimeout)
	out.IdleTimeout = ParseDuration(EnvPrefix+"SERVER_IDLE_TIMEOUT", out.IdleTimeout)
	if v := ParseInt(EnvPrefix+"SERVER_MAX_HEADER_BYTES", out.MaxHeaderBytes); v > 0 {
		out.MaxHeaderBytes = v
	}
	out.ShutdownTimeout = ParseDuration(EnvPrefix+"SERVER_SHUTDOWN_TIMEOUT", out.ShutdownTimeout)
	if out.ShutdownTimeout < minShutdownTimeout {
		out.ShutdownTimeout = minShutdownTimeout
	}
	return out
}
