// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/config"
)

type fakeManager struct {
	startErr error
	started  chan struct{}
	shutdown chan struct{}
}

func newFakeManager(startErr error) *fakeManager {
	return &fakeManager{startErr: startErr, started: make(chan struct{}), shutdown: make(chan struct{}, 1)}
}

func (m *fakeManager) Start(ctx context.Context) error {
	close(m.started)
	if m.startErr != nil {
		return m.startErr
	}
	<-ctx.Done()
	return nil
}

func (m *fakeManager) Shutdown(context.Context) error {
	m.shutdown <- struct{}{}
	return nil
}

func (m *fakeManager) RegisterShutdownHook(string, ShutdownHook) {}

func TestApp_Run_MissingManager(t *testing.T) {
	app := NewApp(zerolog.Nop(), nil, nil, nil)
	require.ErrorIs(t, app.Run(context.Background()), ErrMissingManager)
}

func TestApp_Run_StartFailureShutsDown(t *testing.T) {
	mgr := newFakeManager(errors.New("bind: address in use"))
	app := NewApp(zerolog.Nop(), mgr, nil, nil)

	err := app.Run(context.Background())
	require.ErrorContains(t, err, "address in use")
	select {
	case <-mgr.shutdown:
	case <-time.After(time.Second):
		t.Fatal("manager was not shut down after start failure")
	}
}

func TestApp_Run_AppliesReloadedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o600))

	loader := config.NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := config.NewConfigHolder(initial, loader, path)

	applied := make(chan config.AppConfig, 1)
	mgr := newFakeManager(nil)
	app := NewApp(zerolog.Nop(), mgr, holder, func(cfg config.AppConfig) { applied <- cfg })
	app.reloadSignal = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	<-mgr.started

	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\ndashboard:\n  maxPlotEdges: 250\n"), 0o600))
	require.NoError(t, holder.Reload(ctx))

	select {
	case cfg := <-applied:
		assert.Equal(t, 250, cfg.Dashboard.MaxPlotEdges)
	case <-time.After(2 * time.Second):
		t.Fatal("reloaded config was not applied")
	}

	cancel()
	require.NoError(t, <-done)
}
