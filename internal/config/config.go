// Package config manages application configuration using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// AnalysisConfig controls module discovery and line counting.
type AnalysisConfig struct {
	// Languages are the buckets code counts are folded into.
	Languages []string `mapstructure:"languages"`
	// Recursive enables nested module discovery below the repository root.
	Recursive bool `mapstructure:"recursive"`
	// ExcludeDirs are directory names skipped during discovery and walking.
	ExcludeDirs []string `mapstructure:"exclude_dirs"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	// Format is the default output format: json, yaml or table.
	Format string `mapstructure:"format"`
}

// CacheConfig controls the file and report caches.
type CacheConfig struct {
	// Dir is where cached reports are stored. Empty selects the XDG cache
	// directory.
	Dir string `mapstructure:"dir"`
	// TTL is how long a cached report stays fresh.
	TTL time.Duration `mapstructure:"ttl"`
	// FileEntries is the capacity of the in-memory per-file cache.
	FileEntries int `mapstructure:"file_entries"`
}

// ServerConfig controls the analysis daemon.
type ServerConfig struct {
	// Socket is the unix socket path. Empty selects the default path under
	// XDG_RUNTIME_DIR.
	Socket string `mapstructure:"socket"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce is the quiet period before changes trigger a reanalysis.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Load loads configuration from files and environment variables.
// It searches for config files in the following order:
// 1. /etc/addons-analyzer/config.{toml,yaml,yml}
// 2. $XDG_CONFIG_HOME/addons-analyzer/config.{toml,yaml,yml} (or ~/.config/addons-analyzer/)
// 3. ./config.{toml,yaml,yml}
//
// Environment variables override file settings using the prefix ADDONS_ANALYZER_
// For example: ADDONS_ANALYZER_OUTPUT_FORMAT
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name (without extension)
	v.SetConfigName("config")

	// Add config search paths
	v.AddConfigPath("/etc/addons-analyzer/")
	v.AddConfigPath(getXDGConfigPath())
	v.AddConfigPath(".")

	// Set environment variable prefix
	v.SetEnvPrefix("ADDONS_ANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (it's OK if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		// Only return error if it's not a "not found" error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a provided Viper instance.
// This is useful for testing or when you want to configure Viper differently.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// getXDGConfigPath returns the XDG config directory for addons-analyzer.
func getXDGConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "addons-analyzer")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if we can't get home
		return "."
	}

	return filepath.Join(homeDir, ".config", "addons-analyzer")
}

// CacheDir returns the directory for cached reports, honoring the configured
// override.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "addons-analyzer")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "addons-analyzer")
	}
	return filepath.Join(homeDir, ".cache", "addons-analyzer")
}

// ConfigFileUsed returns the path of the config file that was loaded, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
