// Package config provides YAML-based configuration loading for the
// flappy CLI, terminal client and servers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Config is the full application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Play    PlayConfig    `yaml:"play"`
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// PlayConfig tunes the interactive terminal client.
type PlayConfig struct {
	TickRate int `yaml:"tick_rate"` // Ticks per second while playing
}

// ServerConfig configures the SSH and websocket servers.
type ServerConfig struct {
	SSHAddr     string        `yaml:"ssh_addr"`
	WSAddr      string        `yaml:"ws_addr"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// SessionConfig controls delegated session tokens.
type SessionConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	if c.Storage.DBPath == "" {
		return fmt.Errorf("config: storage.db_path is required")
	}
	if c.Play.TickRate < 1 || c.Play.TickRate > 120 {
		return fmt.Errorf("config: play.tick_rate must be between 1 and 120, got %d", c.Play.TickRate)
	}
	if c.Server.IdleTimeout < 0 {
		return fmt.Errorf("config: server.idle_timeout must not be negative")
	}
	if c.Session.TokenTTL <= 0 {
		return fmt.Errorf("config: session.token_ttl must be positive")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// LogLevel returns the configured level, falling back to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
