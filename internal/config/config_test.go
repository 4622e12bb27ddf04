package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  host: 10.0.0.5
database:
  path: /var/lib/hexfront/games.db
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "10.0.0.5" {
		t.Errorf("expected host 10.0.0.5, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 30000 {
		t.Errorf("expected default port 30000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/var/lib/hexfront/games.db" {
		t.Errorf("expected configured db path, got %q", cfg.Database.Path)
	}
	if cfg.Game.DefaultScenario == "" {
		t.Error("expected a default scenario")
	}
	if cfg.Addr() != "10.0.0.5:30000" {
		t.Errorf("expected addr 10.0.0.5:30000, got %q", cfg.Addr())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 30000 || cfg.Database.Path == "" || cfg.Game.DefaultScenario == "" {
		t.Errorf("incomplete defaults: %+v", cfg)
	}
}
