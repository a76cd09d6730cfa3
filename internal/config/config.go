// Package config loads the console configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "botdesk"

// Environment variables that override the file.
const (
	EnvAPIURL   = "BOTDESK_API_URL"
	EnvAPIToken = "BOTDESK_API_TOKEN"
	EnvLogLevel = "BOTDESK_LOG_LEVEL"
)

// Config is the full console configuration.
type Config struct {
	API  APIConfig  `yaml:"api"`
	List ListConfig `yaml:"list"`
	Log  LogConfig  `yaml:"log"`
	Data DataConfig `yaml:"data"`
}

// APIConfig points the console at the admin API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ListConfig holds task list defaults.
type ListConfig struct {
	PageSize int `yaml:"page_size"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// DataConfig locates local state.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// DBPath is the sqlite file inside the data dir.
func (d DataConfig) DBPath() string {
	return filepath.Join(d.Dir, appName+".db")
}

// Load reads path, applies environment overrides and fills defaults. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://127.0.0.1:8000/api"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 15 * time.Second
	}
	if cfg.List.PageSize <= 0 {
		cfg.List.PageSize = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), appName+".log")
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = xdgDir("XDG_DATA_HOME", ".local", "share")
	}
}

// DefaultPath is the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.yaml")
}

// xdgDir returns $env/botdesk, falling back to ~/<fallback...>/botdesk.
func xdgDir(env string, fallback ...string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	return filepath.Join(base, appName)
}
