// Package config loads CLI configuration from file, environment, and
// defaults.
//
// Precedence (highest first): environment variables prefixed LISTKIT_,
// the config file, built-in defaults. The config file is YAML at
// ~/.listkit/config.yaml unless an explicit path is given.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage backends selectable via storage.backend.
const (
	BackendRecords = "records"
	BackendSQLite  = "sqlite"
)

// Storage selects and parameterizes the local store.
type Storage struct {
	Backend    string `mapstructure:"backend"`
	RecordsDir string `mapstructure:"records_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Dashboard configures the WebSocket feed served by `todo serve`.
type Dashboard struct {
	Port int `mapstructure:"port"`
}

// Config is the full CLI configuration.
type Config struct {
	BaseURL   string    `mapstructure:"base_url"`
	Token     string    `mapstructure:"token"`
	DeviceID  string    `mapstructure:"device_id"`
	LogFile   string    `mapstructure:"log_file"`
	Storage   Storage   `mapstructure:"storage"`
	Dashboard Dashboard `mapstructure:"dashboard"`
}

// Load reads configuration. path may be empty, in which case the
// default location is tried and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	dataDir := defaultDataDir()

	v.SetDefault("base_url", "https://beta.mrdekk.ru/todobackend")
	v.SetDefault("token", "")
	v.SetDefault("device_id", defaultDeviceID())
	v.SetDefault("log_file", "")
	v.SetDefault("storage.backend", BackendRecords)
	v.SetDefault("storage.records_dir", filepath.Join(dataDir, "records"))
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "todo.db"))
	v.SetDefault("dashboard.port", 8080)

	v.SetEnvPrefix("LISTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendRecords, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)",
			c.Storage.Backend, BackendRecords, BackendSQLite)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".listkit"
	}
	return filepath.Join(home, ".listkit")
}

// defaultDeviceID identifies this machine in each item's lastUpdatedBy
// field. Hostname is stable enough for that.
func defaultDeviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}
