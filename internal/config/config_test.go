package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("default http addr")
	}
	if cfg.WebSocketAddr != ":8081" {
		t.Fatalf("default ws addr")
	}
	if cfg.IngestAddr != ":8082" {
		t.Fatalf("default ingest addr")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("default log config: %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "phollow.json")
	data := []byte(`{"httpAddr":":9090","origin":"https://ops.example.com","applicationName":"web-1"}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected :9090")
	}
	if cfg.Origin != "https://ops.example.com" {
		t.Fatalf("expected origin override")
	}
	// untouched fields keep defaults
	if cfg.IngestAddr != ":8082" {
		t.Fatalf("expected default ingest addr, got %s", cfg.IngestAddr)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "phollow.yaml")
	data := []byte("webSocketAddr: \":7071\"\nlog:\n  level: debug\n  format: json\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebSocketAddr != ":7071" {
		t.Fatalf("expected :7071, got %s", cfg.WebSocketAddr)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log override: %+v", cfg.Log)
	}
}

func TestLoadRejectsBadAddr(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "phollow.json")
	if err := os.WriteFile(file, []byte(`{"httpAddr":"no-port"}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("PHOLLOW_HTTP_ADDR", ":9999")
	os.Setenv("PHOLLOW_APPLICATION_NAME", "staging")
	os.Setenv("PHOLLOW_LOG_LEVEL", "debug")
	t.Cleanup(func() {
		os.Unsetenv("PHOLLOW_HTTP_ADDR")
		os.Unsetenv("PHOLLOW_APPLICATION_NAME")
		os.Unsetenv("PHOLLOW_LOG_LEVEL")
	})
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("env override http addr")
	}
	if cfg.ApplicationName != "staging" {
		t.Fatalf("env override name")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("env override log level")
	}
}

func TestDumpRoundtrip(t *testing.T) {
	out, err := Dump(Default())
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "phollow.yaml")
	if err := os.WriteFile(file, []byte(out), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load dumped config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("dump/load mismatch: %+v", cfg)
	}
}
