package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Settings are process-wide options read from the environment.
type Settings struct {
	DataDir   string `env:"BUCKETSIM_DATA"       envDefault:".bucketsim"`
	LogLevel  string `env:"BUCKETSIM_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"BUCKETSIM_LOG_FORMAT" envDefault:"text"`
	Solver    string `env:"BUCKETSIM_SOLVER"`
}

func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return Settings{}, fmt.Errorf("BUCKETSIM_LOG_FORMAT: unknown format %q", s.LogFormat)
	}
	return s, nil
}

func (s Settings) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
