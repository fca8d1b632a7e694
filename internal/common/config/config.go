package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPluginDir is used when neither a flag nor the config names one
	DefaultPluginDir = "."
	// DefaultBaseURL is the Modrinth v2 API root
	DefaultBaseURL = "https://api.modrinth.com/v2"
	// DefaultTimeout bounds a whole run
	DefaultTimeout = 5 * time.Minute
	// DefaultConcurrency bounds parallel registry lookups
	DefaultConcurrency = 4
)

var (
	ErrInvalidConcurrency = errors.New("check.concurrency must be at least 1")
	ErrInvalidTimeout     = errors.New("registry.timeout must not be negative")
)

// Config represents the application configuration
type Config struct {
	Plugins  PluginsConfig  `yaml:"plugins"`
	Registry RegistryConfig `yaml:"registry"`
	Check    CheckConfig    `yaml:"check"`
}

// PluginsConfig holds plugin directory settings
type PluginsConfig struct {
	Directory   string `yaml:"directory"`
	GameVersion string `yaml:"game_version"` // "" or "latest" for the newest release
	ArchiveDir  string `yaml:"archive_dir"`  // defaults to oldplugins next to the directory
}

// RegistryConfig holds registry API settings
type RegistryConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CheckConfig holds update check settings
type CheckConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration written on first use.
func Default() *Config {
	return &Config{
		Plugins: PluginsConfig{
			Directory:   DefaultPluginDir,
			GameVersion: "latest",
		},
		Registry: RegistryConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Check: CheckConfig{
			Concurrency: DefaultConcurrency,
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/lazyandrew/config.yaml (XDG standard - priority)
// 2. ~/.lazyandrew/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "lazyandrew", "config.yaml"),
		filepath.Join(home, ".lazyandrew", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// Load reads configuration from the first available config file
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path. A missing file is
// created with the defaults. Fields absent from an existing file keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	if c.Check.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Registry.Timeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PluginDir returns the configured plugin directory with a leading ~ expanded.
func (c *Config) PluginDir() (string, error) {
	return expandHome(c.Plugins.Directory)
}

// ArchiveDir returns the configured archive directory with a leading ~
// expanded, or "" when the default location should be used.
func (c *Config) ArchiveDir() (string, error) {
	return expandHome(c.Plugins.ArchiveDir)
}

func expandHome(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
