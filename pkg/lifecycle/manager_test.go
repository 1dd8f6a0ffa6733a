package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	dir := t.TempDir()
	m := New(
		filepath.Join(dir, "server.pid"),
		filepath.Join(dir, "server.log"),
		filepath.Join(dir, "config.json"),
		func(cfg Config) (string, []string) { return "/bin/sleep", []string{"30"} },
	)
	m.StartupTimeout = 200 * time.Millisecond
	m.StopTimeout = 200 * time.Millisecond
	return m
}

func TestStop_OnAlreadyStoppedServerIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Stop(context.Background()))
}

func TestStatus_NoPIDFileIsStopped(t *testing.T) {
	m := newTestManager(t)
	status, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStopped, status.State)
	assert.False(t, status.Running)
}

func TestStart_FailsWithStartFailedWhenProcessNeverBindsPort(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, WriteConfig(m.ConfigFile, Config{Host: "127.0.0.1", Port: 18123, Workers: 1, LogLevel: "info"}))

	err := m.Start(context.Background(), false)
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.StartFailed, apiErr.Kind)
}
