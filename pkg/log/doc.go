// Package log provides structured logging for Phollow components.
//
// Construct a Logger explicitly and pass it via dependency injection:
//
//	logger := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	logger.With(log.Component("ingest")).Info("listening", log.Str("addr", addr))
//
// ApplyConfig builds a Logger from a level/format pair (typically sourced
// from PHOLLOW_LOG_LEVEL and PHOLLOW_LOG_FORMAT). RedirectStdLog routes
// standard-library log output through a Logger so third-party packages share
// the same pipeline.
package log
