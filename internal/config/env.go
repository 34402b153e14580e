package config

import "os"

// FromEnv overlays PHOLLOW_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("PHOLLOW_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("PHOLLOW_WS_ADDR"); v != "" {
		cfg.WebSocketAddr = v
	}
	if v := os.Getenv("PHOLLOW_INGEST_ADDR"); v != "" {
		cfg.IngestAddr = v
	}
	if v := os.Getenv("PHOLLOW_ORIGIN"); v != "" {
		cfg.Origin = v
	}
	if v := os.Getenv("PHOLLOW_APPLICATION_NAME"); v != "" {
		cfg.ApplicationName = v
	}
	if v := os.Getenv("PHOLLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PHOLLOW_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
