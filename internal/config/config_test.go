package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL == "" {
		t.Error("default base_url should not be empty")
	}
	if cfg.Storage.Backend != BackendRecords {
		t.Errorf("default backend = %q, want %q", cfg.Storage.Backend, BackendRecords)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("default dashboard port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.DeviceID == "" {
		t.Error("device_id should default to something non-empty")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
base_url: https://example.com/todo
token: sekret
storage:
  backend: sqlite
  sqlite_path: /tmp/x.db
dashboard:
  port: 9999
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != "https://example.com/todo" {
		t.Errorf("base_url = %q", cfg.BaseURL)
	}
	if cfg.Token != "sekret" {
		t.Errorf("token = %q", cfg.Token)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Dashboard.Port != 9999 {
		t.Errorf("dashboard port = %d, want 9999", cfg.Dashboard.Port)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LISTKIT_BASE_URL", "https://env.example.com")
	t.Setenv("LISTKIT_STORAGE_BACKEND", "sqlite")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("base_url = %q, want env override", cfg.BaseURL)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("backend = %q, want env override sqlite", cfg.Storage.Backend)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: carrier-pigeon\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unknown storage backend")
	}
}

func TestLoad_MissingExplicitFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail when an explicit config path does not exist")
	}
}
