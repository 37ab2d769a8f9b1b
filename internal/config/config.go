// Package config loads jenkinsfix runtime settings.
//
// Values are layered: built-in defaults, then the ini file, then environment
// variables prefixed with JENKINSFIX_ (a .env file in the working directory is
// honored outside tree filters). The rewrite patterns themselves are not configurable.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/inovacc/jenkinsfix/internal/application"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	LogFormatText = "text"
	LogFormatJSON = "json"

	// PathEnvKey selects the config file when --config is not given.
	PathEnvKey = application.EnvPrefix + "CONFIG"

	// commitEnvKey is set by git filter-branch in tree filter processes.
	commitEnvKey = "GIT_COMMIT"
)

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `ini:"level" env:"LOG_LEVEL"`
	Format string `ini:"format" env:"LOG_FORMAT"`
}

// GitConfig selects the git executable.
type GitConfig struct {
	Path string `ini:"path" env:"GIT_PATH"`
}

// ScanConfig controls secret scanning of rewritten content.
type ScanConfig struct {
	// Verify scans history with gitleaks after a rewrite.
	Verify bool `ini:"verify" env:"SCAN_VERIFY"`
	// Blobs scans every rewritten blob and logs findings.
	Blobs bool `ini:"blobs" env:"SCAN_BLOBS"`
}

// Config defines runtime configuration for jenkinsfix.
type Config struct {
	Log  LogConfig
	Git  GitConfig
	Scan ScanConfig

	// Path is the file the configuration was read from, empty when none.
	Path string `env:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Scan: ScanConfig{
			Verify: true,
		},
	}
}

// Load reads configuration. An empty path means $JENKINSFIX_CONFIG or the
// default location, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnvKey)
	}

	explicit := path != ""
	if !explicit {
		defaultPath, err := application.DefaultConfigPath()
		if err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		} else {
			cfg.Path = path
		}
	}

	// Tree filters run in a checkout of a historical commit; its .env is
	// repository content, not configuration. The parent's .env is inherited
	// through the environment.
	if os.Getenv(commitEnvKey) == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if err := env.Parse(&cfg, env.Options{Prefix: application.EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	sections := []struct {
		name string
		dst  any
	}{
		{"log", &cfg.Log},
		{"git", &cfg.Git},
		{"scan", &cfg.Scan},
	}

	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}

		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("invalid [%s] section in %s: %w", s.name, path, err)
		}
	}

	return nil
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: expected %s or %s", c.Log.Format, LogFormatText, LogFormatJSON)
	}

	return nil
}
