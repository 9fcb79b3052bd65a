package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"

	"grimm.is/allowsync/internal/brand"
)

// Settings are the process-level knobs read from the environment. They
// cover what has to be known before the config file is parsed, plus
// overrides for running the same file in different surroundings.
type Settings struct {
	ConfigFile string `env:"ALLOWSYNC_CONFIG"`
	LogLevel   string `env:"ALLOWSYNC_LOG_LEVEL"`
	LogJSON    bool   `env:"ALLOWSYNC_LOG_JSON" envDefault:"false"`
	LockFile   string `env:"ALLOWSYNC_LOCK_FILE"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if s.ConfigFile == "" {
		s.ConfigFile = brand.DefaultConfigPath()
	}
	return s, nil
}

// Apply overlays the environment settings onto a loaded config. Env wins
// over the file so a unit override never needs a file edit.
func (s *Settings) Apply(cfg *Config) {
	if s.LogLevel != "" {
		cfg.Log.Level = s.LogLevel
	}
	if s.LogJSON {
		cfg.Log.JSON = true
	}
}

// LockPath resolves the lock file path, env override first.
func (s *Settings) LockPath(cfg *Config) string {
	if s.LockFile != "" {
		return s.LockFile
	}
	if cfg != nil && cfg.Daemon != nil {
		return cfg.Daemon.LockFile
	}
	return ""
}
