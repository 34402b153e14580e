package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// HTTPAddr serves the dashboard UI and the pull API.
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	// WebSocketAddr serves the live viewer push channel.
	WebSocketAddr string `json:"webSocketAddr" yaml:"webSocketAddr"`
	// IngestAddr accepts newline-delimited producer connections.
	IngestAddr string `json:"ingestAddr" yaml:"ingestAddr"`
	// Origin, when set, restricts browser-facing endpoints to one Origin
	// header value. Empty allows local dashboards only.
	Origin string `json:"origin" yaml:"origin"`
	// ApplicationName labels this hub instance in the meta endpoint.
	ApplicationName string `json:"applicationName" yaml:"applicationName"`
	// Log configures level and format of the process logger.
	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig mirrors pkg/log.Config so config files can carry it.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		WebSocketAddr:   ":8081",
		IngestAddr:      ":8082",
		ApplicationName: "phollow",
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unusable listen addresses.
func (c Config) Validate() error {
	for name, addr := range map[string]string{
		"httpAddr":      c.HTTPAddr,
		"webSocketAddr": c.WebSocketAddr,
		"ingestAddr":    c.IngestAddr,
	} {
		if addr == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Dump renders the config as YAML for the `config show` command.
func Dump(c Config) (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
