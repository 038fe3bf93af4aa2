package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
monitor:
  workers: 8
storage:
  instances_file: /srv/notifier/instances.json
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Monitor.Workers)
	assert.Equal(t, "1800s", cfg.Monitor.PollingInterval)
	assert.Equal(t, 30*time.Minute, cfg.Monitor.PollingIntervalDuration())
	assert.Equal(t, "/srv/notifier/instances.json", cfg.Storage.InstancesFile)
	assert.Equal(t, DefaultStorageConfig.StateDir, cfg.Storage.StateDir)
	assert.Equal(t, DefaultSourceConfig.URL, cfg.Source.URL)
	assert.Equal(t, 3, cfg.Retry.Policy().MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Policy().BaseDelay)
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := LoadConfig(missing, true)
	require.Error(t, err)

	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultMonitorConfig, cfg.Monitor)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
monitor:
  polling_interval: often
`)

	_, err := LoadConfig(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.polling_interval")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "60")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STATE_DIR", "/var/lib/notifier")
	t.Setenv("LEGACY_DIR", "/opt/notifier")

	path := writeConfig(t, `
monitor:
  polling_interval: 5m
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Monitor.PollingIntervalDuration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/lib/notifier", cfg.Storage.StateDir)
	assert.Equal(t, "/opt/notifier", cfg.Storage.LegacyDir)
}

func TestLoadConfigLegacyDir(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "logging:\n  level: warn\n"), true)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Storage.LegacyDir)

	cfg, err = LoadConfig(writeConfig(t, "storage:\n  legacy_dir: \"\"\n"), true)
	require.NoError(t, err)
	assert.Empty(t, cfg.Storage.LegacyDir, "an empty legacy_dir turns migration off")
	assert.Equal(t, DefaultStorageConfig.StateDir, cfg.Storage.StateDir)
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "half an hour")

	_, err := LoadConfig("", false)
	require.Error(t, err)
}

func TestAPIKeyPaths(t *testing.T) {
	api := APIConfig{KeyDir: "/etc/notifier/keys"}

	assert.Equal(t, "/etc/notifier/keys/api.key", api.SigningKeyPath(""))
	assert.Equal(t, "/tmp/other/api.pub", api.SigningPublicKeyPath("/tmp/other"))
}
