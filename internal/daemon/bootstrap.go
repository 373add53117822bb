// SPDX-License-Identifier: MIT

// Package daemon runs the citesnet server: it starts the API and metrics
// listeners, wires config reloads and drives graceful shutdown.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/telemetry"
)

// EnvEnvironment names the deployment environment reported on traces.
const EnvEnvironment = config.EnvPrefix + "ENVIRONMENT"

// InitTelemetry installs the tracer provider described by cfg. A disabled
// config installs a no-op provider, so the returned provider is always usable.
func InitTelemetry(ctx context.Context, cfg config.AppConfig) (*telemetry.Provider, error) {
	telCfg := telemetry.FromAppConfig(cfg, config.ParseString(EnvEnvironment, "production"))
	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	if telCfg.Enabled {
		logger := log.WithComponent("daemon")
		logger.Info().
			Str("service", telCfg.ServiceName).
			Str("exporter", telCfg.ExporterType).
			Str("endpoint", telCfg.Endpoint).
			Float64("sampling_rate", telCfg.SamplingRate).
			Msg("telemetry initialized")
	}
	return provider, nil
}

// WaitForShutdown returns a context cancelled on SIGINT or SIGTERM.
func WaitForShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
