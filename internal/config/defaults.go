package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/flappy.yaml
var defaultYAML []byte

// DefaultConfig returns the hard-coded configuration.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			DBPath: "~/.flappy/flappy.db",
		},
		Play: PlayConfig{
			TickRate: 20,
		},
		Server: ServerConfig{
			SSHAddr:     ":23234",
			WSAddr:      ":8080",
			HostKey:     "~/.flappy/ssh_host_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
		Session: SessionConfig{
			TokenTTL: time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
