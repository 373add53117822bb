// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)
}

// Listener names used in logs and errors.
const (
	listenerAPI     = "api"
	listenerMetrics = "metrics"
)

// manager implements the Manager interface.
type manager struct {
	serverCfg config.ServerConfig
	deps      Deps

	// listeners in start order; the API listener always comes first.
	listeners []listener

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

// listener is one HTTP server owned by the manager.
type listener struct {
	name string
	srv  *http.Server
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg config.ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		serverCfg: serverCfg,
		deps:      deps,
		logger:    deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
	}, nil
}

// Start starts the dashboard listener and, when an address is configured,
// the metrics listener, then blocks until ctx is done or a listener fails.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.listeners = m.buildListeners()
	m.mu.Unlock()

	ev := m.logger.Info().
		Str(log.FieldEvent, "citesnet.daemon.start").
		Str("listen", m.serverCfg.ListenAddr).
		Dur("read_timeout", m.serverCfg.ReadTimeout).
		Dur("write_timeout", m.serverCfg.WriteTimeout).
		Dur("shutdown_timeout", m.serverCfg.ShutdownTimeout)
	if m.hasMetricsListener() {
		ev = ev.Str("metrics_listen", m.deps.MetricsAddr)
	} else {
		ev = ev.Bool("metrics_listener", false)
	}
	ev.Int("listeners", len(m.listeners)).Msg("starting citesnet listeners")

	errChan := make(chan error, len(m.listeners))
	for _, l := range m.listeners {
		go m.serve(l, errChan)
	}

	var runErr error
	select {
	case runErr = <-errChan:
		m.logger.Error().Err(runErr).Msg("listener failed, initiating shutdown")
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
	}

	// Detached but bounded, so shutdown completes after the parent is canceled.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	shutdownErr := m.Shutdown(shutdownCtx)
	if runErr == nil {
		return shutdownErr
	}
	if shutdownErr != nil {
		return fmt.Errorf("server error and shutdown failure: %w", errors.Join(runErr, shutdownErr))
	}
	return runErr
}

func (m *manager) hasMetricsListener() bool {
	return m.deps.MetricsHandler != nil && m.deps.MetricsAddr != ""
}

func (m *manager) buildListeners() []listener {
	out := []listener{{
		name: listenerAPI,
		srv: &http.Server{
			Addr:              m.serverCfg.ListenAddr,
			Handler:           m.deps.APIHandler,
			ReadTimeout:       m.serverCfg.ReadTimeout,
			ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
			WriteTimeout:      m.serverCfg.WriteTimeout,
			IdleTimeout:       m.serverCfg.IdleTimeout,
			MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
		},
	}}
	if m.hasMetricsListener() {
		out = append(out, listener{
			name: listenerMetrics,
			srv: &http.Server{
				Addr:              m.deps.MetricsAddr,
				Handler:           m.deps.MetricsHandler,
				ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
			},
		})
	}
	return out
}

// serve runs l until it is shut down; any other exit is reported on errChan.
func (m *manager) serve(l listener, errChan chan<- error) {
	m.logger.Info().
		Str("listener", l.name).
		Str("addr", l.srv.Addr).
		Msg("listener up")

	if err := l.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error().
			Err(err).
			Str(log.FieldEvent, "citesnet."+l.name+".listener.failed").
			Str("listener", l.name).
			Msg("listener failed")
		errChan <- fmt.Errorf("%s listener: %w", l.name, err)
	}
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	listeners := m.listeners
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Str(log.FieldEvent, "citesnet.daemon.stop").Msg("stopping citesnet")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, l := range listeners {
		m.logger.Debug().Str("listener", l.name).Msg("closing listener")
		if err := l.srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s listener shutdown: %w", l.name, err))
		}
	}

	// Hooks close the store and cache last, in reverse registration order.
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		hookStart := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", h.name).
			Dur("duration", time.Since(hookStart)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		m.logger.Error().Int("error_count", len(errs)).Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("citesnet stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}
