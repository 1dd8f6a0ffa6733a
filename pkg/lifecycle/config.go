package lifecycle

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adaptive-scale/docmine/pkg/apierr"
)

// Config is the server's persisted configuration (spec §3 "Server state").
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Workers  int    `json:"workers"`
	Reload   bool   `json:"reload"`
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     8420,
		Workers:  1,
		Reload:   false,
		LogLevel: "info",
	}
}

// ReadConfig reads path, returning DefaultConfig if it does not exist yet.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, apierr.Wrap(apierr.Internal, "failed to read config file", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, apierr.Wrap(apierr.Internal, "failed to parse config file", err)
	}
	return cfg, nil
}

// WriteConfig atomically writes cfg to path.
func WriteConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to marshal config", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-config-*")
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to create temp config file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to write temp config file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to close temp config file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to rename temp config file into place", err)
	}
	return nil
}

// ConfigPatch describes an update to a persisted Config: a nil field is left
// untouched, a non-nil field overwrites it unconditionally. This replaces a
// zero-value-guard scheme (a field was patched only when non-zero), which
// could never represent "explicitly set Reload back to false" or "explicitly
// set Workers back to 0" and silently ignored the attempt.
type ConfigPatch struct {
	Host     *string
	Port     *int
	Workers  *int
	Reload   *bool
	LogLevel *string
}

// Patch applies the fields set in patch onto the config at path and persists
// the merged result.
func Patch(path string, patch ConfigPatch) (Config, error) {
	base, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}
	if patch.Host != nil {
		base.Host = *patch.Host
	}
	if patch.Port != nil {
		base.Port = *patch.Port
	}
	if patch.Workers != nil {
		base.Workers = *patch.Workers
	}
	if patch.Reload != nil {
		base.Reload = *patch.Reload
	}
	if patch.LogLevel != nil {
		base.LogLevel = *patch.LogLevel
	}
	if err := WriteConfig(path, base); err != nil {
		return Config{}, err
	}
	return base, nil
}
