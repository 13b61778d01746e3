// Package config loads application settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

var (
	configDir      = "taskpilot"
	configFileName = "config.yml"
	dbFileName     = "taskpilot.db"
	logFileName    = "taskpilot.log"
)

// viper keys
const (
	keyDBPath             = "storage.db_path"
	keyLogPath            = "logging.file"
	keyLogVerbose         = "logging.verbose"
	keySweepInterval      = "monitor.sweep_interval"
	keyHeartbeatThreshold = "monitor.heartbeat_threshold"
	keyAIBaseURL          = "ai.base_url"
	keyAIModel            = "ai.model"
	keyAIAPIKey           = "ai.api_key"
	keyAITimeout          = "ai.request_timeout"
)

// MonitorConfig controls the staleness sweep.
type MonitorConfig struct {
	SweepInterval      time.Duration
	HeartbeatThreshold time.Duration
}

// AIConfig controls the generative-model client.
type AIConfig struct {
	BaseURL        string
	Model          string
	APIKey         string
	RequestTimeout time.Duration
}

// Config is the resolved application configuration.
type Config struct {
	PathToConfig string
	DBPath       string
	LogPath      string
	LogVerbose   bool
	Monitor      MonitorConfig
	AI           AIConfig
}

// Init loads the configuration, writing a default config file on first run.
// The TASKPILOT_ENV environment variable isolates data files per
// environment, and TASKPILOT_AI_API_KEY overrides the stored API key.
func Init() (*Config, error) {
	env := strings.TrimSpace(os.Getenv("TASKPILOT_ENV"))
	if env != "" {
		configFileName = fmt.Sprintf("config_%s.yml", env)
		dbFileName = fmt.Sprintf("taskpilot_%s.db", env)
		logFileName = fmt.Sprintf("taskpilot_%s.log", env)
	}

	configFilePath, err := xdg.ConfigFile(
		filepath.Join(configDir, configFileName),
	)
	if err != nil {
		return nil, err
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configFilePath)
	v.SetConfigType("yaml")

	v.SetDefault(keyDBPath, filepath.Join(dataDir, dbFileName))
	v.SetDefault(keyLogPath, filepath.Join(dataDir, logFileName))
	v.SetDefault(keyLogVerbose, false)
	v.SetDefault(keySweepInterval, "5m")
	v.SetDefault(keyHeartbeatThreshold, "10m")
	v.SetDefault(keyAIBaseURL, "")
	v.SetDefault(keyAIModel, "")
	v.SetDefault(keyAIAPIKey, "")
	v.SetDefault(keyAITimeout, "60s")

	v.SetEnvPrefix("taskpilot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file failed: %w", err)
		}

		if err := v.WriteConfig(); err != nil {
			return nil, fmt.Errorf("writing default config failed: %w", err)
		}
	}

	cfg := &Config{
		PathToConfig: configFilePath,
		DBPath:       v.GetString(keyDBPath),
		LogPath:      v.GetString(keyLogPath),
		LogVerbose:   v.GetBool(keyLogVerbose),
		Monitor: MonitorConfig{
			SweepInterval:      v.GetDuration(keySweepInterval),
			HeartbeatThreshold: v.GetDuration(keyHeartbeatThreshold),
		},
		AI: AIConfig{
			BaseURL:        v.GetString(keyAIBaseURL),
			Model:          v.GetString(keyAIModel),
			APIKey:         v.GetString(keyAIAPIKey),
			RequestTimeout: v.GetDuration(keyAITimeout),
		},
	}

	return cfg, nil
}
