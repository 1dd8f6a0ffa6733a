package lifecycle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := ReadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWriteConfigThenReadConfig_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Config{Host: "0.0.0.0", Port: 9000, Workers: 4, LogLevel: "debug"}
	require.NoError(t, WriteConfig(path, cfg))

	got, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPatch_MergesOnlyProvidedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, WriteConfig(path, Config{Host: "127.0.0.1", Port: 8000, Workers: 2, LogLevel: "info"}))

	port := 9001
	merged, err := Patch(path, ConfigPatch{Port: &port})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", merged.Host)
	assert.Equal(t, 9001, merged.Port)
	assert.Equal(t, 2, merged.Workers)

	persisted, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, merged, persisted)
}

func TestPatch_LeavesReloadUntouchedWhenNotSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, WriteConfig(path, Config{Host: "127.0.0.1", Port: 8000, Reload: true}))

	port := 9001
	merged, err := Patch(path, ConfigPatch{Port: &port})
	require.NoError(t, err)
	assert.True(t, merged.Reload, "Reload must survive a patch that doesn't mention it")

	reload := false
	merged, err = Patch(path, ConfigPatch{Reload: &reload})
	require.NoError(t, err)
	assert.False(t, merged.Reload)
	assert.Equal(t, 9001, merged.Port, "Port must survive a patch that only touches Reload")
}
