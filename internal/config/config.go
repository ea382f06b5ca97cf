// SPDX-License-Identifier: MPL-2.0

// Package config loads the tool configuration.
//
// Sources, in increasing precedence: built-in defaults, a TOML config file
// (explicit path, the platform config directory, or the current directory),
// and CHREF_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "chref"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// EnvPrefix is the environment variable prefix.
	EnvPrefix = "CHREF"
)

// Config is the effective tool configuration.
type Config struct {
	// ContainerEngine selects the local container engine ("docker", "podman",
	// or "" for auto-detection).
	ContainerEngine string `mapstructure:"container_engine" toml:"container_engine"`
	// ImageRepository is the server image repository versions are pulled from.
	ImageRepository string `mapstructure:"image_repository" toml:"image_repository"`
	// Remote switches to the hosted execution service instead of local
	// container instances.
	Remote bool `mapstructure:"remote" toml:"remote"`
	// FiddleURL is the hosted execution service base URL.
	FiddleURL string `mapstructure:"fiddle_url" toml:"fiddle_url"`

	// CachePath is the result cache file. Empty selects the platform cache
	// directory.
	CachePath string `mapstructure:"cache_path" toml:"cache_path"`
	// OutputDir is where rendered pages are written.
	OutputDir string `mapstructure:"output_dir" toml:"output_dir"`

	// MutableAliases are version identifiers whose cached results are never
	// trusted.
	MutableAliases []string `mapstructure:"mutable_aliases" toml:"mutable_aliases"`
	// FloorVersion stops version listing at this tag (inclusive). Empty means
	// no floor.
	FloorVersion string `mapstructure:"floor_version" toml:"floor_version"`
	// VersionLimit caps how many versions are processed (0 = unlimited).
	VersionLimit int `mapstructure:"version_limit" toml:"version_limit"`

	// MaxAttempts is the per-query retry bound for local execution.
	MaxAttempts int `mapstructure:"max_attempts" toml:"max_attempts"`
	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" toml:"retry_delay"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: "",
		ImageRepository: "clickhouse/clickhouse-server",
		Remote:          false,
		FiddleURL:       "https://fiddle.clickhouse.com",
		CachePath:       "",
		OutputDir:       ".",
		MutableAliases:  []string{"latest", "head"},
		FloorVersion:    "",
		VersionLimit:    36,
		MaxAttempts:     60,
		RetryDelay:      100 * time.Millisecond,
	}
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// ConfigFilePath, when set, is used exclusively; a missing file is an error.
	ConfigFilePath string
	// ConfigDirPath overrides the platform config directory, primarily for tests.
	ConfigDirPath string
}

// ConfigDir returns the chref configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application
// Support, and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultCachePath returns the platform cache file location.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(dir, AppName, "cache.db"), nil
}

// Load resolves the effective configuration. It returns the config along with
// the path of the config file that was read ("" when running on defaults).
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("container_engine", defaults.ContainerEngine)
	v.SetDefault("image_repository", defaults.ImageRepository)
	v.SetDefault("remote", defaults.Remote)
	v.SetDefault("fiddle_url", defaults.FiddleURL)
	v.SetDefault("cache_path", defaults.CachePath)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("mutable_aliases", defaults.MutableAliases)
	v.SetDefault("floor_version", defaults.FloorVersion)
	v.SetDefault("version_limit", defaults.VersionLimit)
	v.SetDefault("max_attempts", defaults.MaxAttempts)
	v.SetDefault("retry_delay", defaults.RetryDelay)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		// Config directory first, current directory as fallback. A missing
		// file is not an error: defaults and environment apply.
		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err != nil {
				return nil, "", fmt.Errorf("failed to read config file %s: %w", candidate, err)
			}
			resolvedPath = candidate
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.CachePath == "" {
		path, err := DefaultCachePath()
		if err != nil {
			return nil, "", err
		}
		cfg.CachePath = path
	}

	if cfg.MaxAttempts < 1 {
		return nil, "", fmt.Errorf("max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.RetryDelay < 0 {
		return nil, "", fmt.Errorf("retry_delay must not be negative, got %s", cfg.RetryDelay)
	}

	return &cfg, resolvedPath, nil
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// GenerateTOML returns the TOML representation of a configuration.
func GenerateTOML(cfg *Config) (string, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(out), nil
}

// Save writes the configuration to the platform config directory.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := GenerateTOML(cfg)
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
