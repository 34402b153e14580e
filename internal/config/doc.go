// Package config provides loading and environment overlay for the phollow
// runtime configuration. It exposes a Default() baseline, file loading for
// JSON and YAML, and a PHOLLOW_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/phollow.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
