package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal(DefaultYAML(), &cfg); err != nil {
		t.Fatalf("embedded default does not parse: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("embedded default = %+v, want %+v", cfg, DefaultConfig())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("embedded default is invalid: %v", err)
	}
}

func TestLoadCustomPathOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte("play:\n  tick_rate: 30\nsession:\n  token_ttl: 15m\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Play.TickRate != 30 {
		t.Errorf("TickRate = %d, want 30", cfg.Play.TickRate)
	}
	if cfg.Session.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %s, want 15m", cfg.Session.TokenTTL)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}
	// Untouched keys keep their defaults.
	if cfg.Server.SSHAddr != ":23234" || cfg.Storage.DBPath != "~/.flappy/flappy.db" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing custom file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("play:\n  tick_rate: 0\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject a zero tick rate")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject unknown log level")
	}

	cfg = DefaultConfig()
	cfg.Session.TokenTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject zero token ttl")
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("/var/db"); got != "/var/db" {
		t.Errorf("ExpandHome(/var/db) = %s", got)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/x.db"); got != filepath.Join(home, "x.db") {
		t.Errorf("ExpandHome(~/x.db) = %s", got)
	}
}
