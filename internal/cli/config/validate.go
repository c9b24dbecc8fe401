package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlquest/internal/cli/output"
	"github.com/leapstack-labs/sqlquest/pkg/adapter"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if !adapter.IsRegistered(c.Engine) {
		return &adapter.UnknownAdapterError{Type: c.Engine, Available: adapter.ListAdapters()}
	}
	if _, err := output.ParseMode(c.Output); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a log_level value to a slog level. Empty means warn.
func ParseLogLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

// Level returns the effective log level; verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}
