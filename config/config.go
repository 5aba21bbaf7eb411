// Package config loads condoor's runtime configuration: cache location,
// default timeouts, log verbosity, and an optional pattern-registry
// overlay. Ported from condoor/config.py's YConfig, which loaded a
// condoor.yaml that was absent from the retrieved source -- this
// package keeps the YAML-driven shape but gives every field a usable
// zero-value default, the gap the original's then-empty CONF singleton
// left unaddressed.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds condoor's tunable defaults.
type Config struct {
	CacheDir          string        `yaml:"cache_dir"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	CommandTimeout    time.Duration `yaml:"command_timeout"`
	ReconnectTimeout  time.Duration `yaml:"reconnect_timeout"`
	LogLevel          string        `yaml:"log_level"`
	LogSession        bool          `yaml:"log_session"`
	PatternOverlayPath string       `yaml:"pattern_overlay_path"`
}

// Default returns condoor's built-in configuration.
func Default() *Config {
	return &Config{
		CacheDir:         os.TempDir(),
		ConnectTimeout:   60 * time.Second,
		CommandTimeout:   60 * time.Second,
		ReconnectTimeout: 360 * time.Second,
		LogLevel:         "info",
		LogSession:       true,
	}
}

// Load reads a YAML document from path, overlaying it onto Default().
// A missing file is not an error -- callers that never configured one
// simply get the defaults, the same "absent condoor.yaml" tolerance the
// original YConfig exhibited, made deliberate instead of accidental.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
