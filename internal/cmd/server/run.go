package serverrun

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/webgraphe/phollow/internal/config"
	"github.com/webgraphe/phollow/internal/runtime"
	httpserver "github.com/webgraphe/phollow/internal/server/http"
	"github.com/webgraphe/phollow/internal/server/ingest"
	wsserver "github.com/webgraphe/phollow/internal/server/ws"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// overridable in tests
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	Config cfgpkg.Config
}

// Run starts the ingest, viewer, and HTTP servers and blocks until ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// env overrides the loaded config for log settings
	cfg := &logpkg.Config{
		Level:  getenvDefault("PHOLLOW_LOG_LEVEL", opts.Config.Log.Level),
		Format: getenvDefault("PHOLLOW_LOG_FORMAT", opts.Config.Log.Format),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., net/http) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{Config: opts.Config, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting phollow server",
		logpkg.Str("http", opts.Config.HTTPAddr),
		logpkg.Str("ws", opts.Config.WebSocketAddr),
		logpkg.Str("ingest", opts.Config.IngestAddr),
		logpkg.Str("application", opts.Config.ApplicationName),
		logpkg.Str("boot", rt.BootID()),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
	)

	isrv := ingest.New(rt)
	wsrv := wsserver.New(rt)
	hsrv := httpserver.New(rt)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := isrv.ListenAndServe(sctx, opts.Config.IngestAddr); err != nil && sctx.Err() == nil {
			log.Printf("ingest error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := wsrv.ListenAndServe(sctx, opts.Config.WebSocketAddr); err != nil && sctx.Err() == nil {
			log.Printf("ws error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.Config.HTTPAddr); err != nil && sctx.Err() == nil {
			log.Printf("http error: %v", err)
		}
	}()

	<-sctx.Done()
	// Shut the transports down before the runtime so in-flight sessions
	// close cleanly.
	isrv.Close()
	wsrv.Close()
	hsrv.Close()
	wg.Wait()
	return nil
}
