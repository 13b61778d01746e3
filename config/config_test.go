package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	xdg.Reload()

	t.Cleanup(func() {
		xdg.Reload()
	})

	return dir
}

func TestInitWritesDefaultConfig(t *testing.T) {
	isolate(t)

	cfg, err := Init()
	require.NoError(t, err)

	_, err = os.Stat(cfg.PathToConfig)
	require.NoError(t, err, "default config file should be written on first run")

	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.LogPath)
	assert.False(t, cfg.LogVerbose)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.SweepInterval)
	assert.Equal(t, 10*time.Minute, cfg.Monitor.HeartbeatThreshold)
	assert.Equal(t, 60*time.Second, cfg.AI.RequestTimeout)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestInitReadsAPIKeyFromEnv(t *testing.T) {
	isolate(t)

	t.Setenv("TASKPILOT_AI_API_KEY", "sk-from-env")

	cfg, err := Init()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.AI.APIKey)
}

func TestInitSuffixesFilesPerEnvironment(t *testing.T) {
	isolate(t)

	origConfig, origDB, origLog := configFileName, dbFileName, logFileName

	t.Cleanup(func() {
		configFileName, dbFileName, logFileName = origConfig, origDB, origLog
	})

	t.Setenv("TASKPILOT_ENV", "staging")

	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "config_staging.yml", filepath.Base(cfg.PathToConfig))
	assert.Equal(t, "taskpilot_staging.db", filepath.Base(cfg.DBPath))
	assert.Equal(t, "taskpilot_staging.log", filepath.Base(cfg.LogPath))
}
