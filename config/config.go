// Package config collects runtime settings from flags and environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aurareader/aura-reader/feed"
)

// Config holds the settings shared by every command.
type Config struct {
	DBPath      string
	Timeout     time.Duration
	Concurrency int
	LogLevel    string
	Addr        string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:      DefaultDBPath(),
		Timeout:     feed.DefaultTimeout,
		Concurrency: feed.DefaultConcurrency,
		LogLevel:    "info",
		Addr:        ":8080",
	}
}

// DefaultDBPath is the database location under the user's config directory.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "aura-reader.db"
	}
	return filepath.Join(home, ".config", "aura-reader", "aura-reader.db")
}

// Validate checks the settings for obvious mistakes.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", s)
	}
	return level, nil
}

// NewLogger builds the text logger writing to stderr; stdout carries command output.
func (c Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
