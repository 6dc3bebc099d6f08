package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
service:
  id: "test-instance"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
tester:
  timeout_seconds: 10
  quick_timeout_seconds: 3
  batch_concurrency: 5
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-instance" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-instance")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Tester.BatchConcurrency != 5 {
		t.Errorf("Tester.BatchConcurrency = %d, want 5", cfg.Tester.BatchConcurrency)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
service:
  id: ""
database:
  path: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_QuickTimeoutExceedsFullTimeout(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
tester:
  timeout_seconds: 3
  quick_timeout_seconds: 10
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_TSDBEnabledRequiresURLAndToken(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
tsdb:
  enabled: true
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	t.Setenv("FIELDLINK_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("FIELDLINK_TSDB_TOKEN", "env-token")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.TSDB.Token != "env-token" {
		t.Errorf("TSDB.Token = %q, want env override", cfg.TSDB.Token)
	}
}

func TestDefaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port default = %d, want 8080", cfg.API.Port)
	}
	if cfg.Tester.TimeoutSeconds != 10 {
		t.Errorf("Tester.TimeoutSeconds default = %d, want 10", cfg.Tester.TimeoutSeconds)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %q, want info", cfg.Logging.Level)
	}
}
