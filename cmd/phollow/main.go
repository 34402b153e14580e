package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/webgraphe/phollow/internal/cmd/client"
	serverrun "github.com/webgraphe/phollow/internal/cmd/server"
	cfgpkg "github.com/webgraphe/phollow/internal/config"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

func main() {
	// initialize logger for CLI
	// Respect PHOLLOW_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("PHOLLOW_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by net/http) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "phollow",
		Short: "phollow error monitoring hub",
		Long:  "phollow is a single-binary error monitoring hub. This CLI manages the server and inspects recorded documents.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the phollow server (ingest, viewer, and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			httpAddr, _ := cmd.Flags().GetString("http")
			wsAddr, _ := cmd.Flags().GetString("ws")
			ingestAddr, _ := cmd.Flags().GetString("ingest")
			origin, _ := cmd.Flags().GetString("origin")
			appName, _ := cmd.Flags().GetString("application-name")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}
			if wsAddr != "" {
				cfg.WebSocketAddr = wsAddr
			}
			if ingestAddr != "" {
				cfg.IngestAddr = ingestAddr
			}
			if origin != "" {
				cfg.Origin = origin
			}
			if appName != "" {
				cfg.ApplicationName = appName
			}
			if logLevel != "" {
				_ = os.Setenv("PHOLLOW_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("PHOLLOW_LOG_FORMAT", logFormat)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "Config file path (JSON or YAML)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (dashboard + pull API, default :8080)")
	serverStartCmd.Flags().String("ws", "", "Viewer WebSocket listen address (default :8081)")
	serverStartCmd.Flags().String("ingest", "", "Producer ingest listen address (default :8082)")
	serverStartCmd.Flags().String("origin", os.Getenv("PHOLLOW_ORIGIN"), "Allowed browser origin (besides localhost)")
	serverStartCmd.Flags().String("application-name", "", "Application label shown in the meta endpoint")
	serverStartCmd.Flags().String("log-level", os.Getenv("PHOLLOW_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("PHOLLOW_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// config show
	configCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			out, err := cfgpkg.Dump(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	configShowCmd.Flags().String("config", "", "Config file path (JSON or YAML)")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	// docs commands (list/get/meta/forget)
	rootCmd.AddCommand(clientcmd.NewDocsCommand(apiURL))

	// tail command (live feed)
	rootCmd.AddCommand(clientcmd.NewTailCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("PHOLLOW_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
