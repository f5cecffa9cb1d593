package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// BackendConfig holds nodeFlip backend connection configuration
type BackendConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	WorkflowID string `mapstructure:"workflow_id"`
}

// BridgeConfig holds canvas bridge transport configuration
type BridgeConfig struct {
	Listen       string `mapstructure:"listen"`
	SimulateHost bool   `mapstructure:"simulate_host"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile string `mapstructure:"log_file"`
	Persist bool   `mapstructure:"persist"`
	Level   string `mapstructure:"level"`
}

// TranscriptConfig holds conversation persistence configuration
type TranscriptConfig struct {
	Path string `mapstructure:"path"`
}

// Config represents the application configuration
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
}

// Global config instance
var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.nodeflip")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "nodeflip"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("NODEFLIP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, flags and env still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg = loaded
	return cfg, nil
}

// Set replaces the global config instance (useful for testing)
func Set(c *Config) {
	cfg = c
}

// Configured reports whether the backend connection settings are present
func (c *Config) Configured() bool {
	return c.Backend.URL != "" && c.Backend.APIKey != ""
}
