package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/resume-analyzer/internal/server"
	"github.com/jonathan/resume-analyzer/internal/server/ratelimit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the analyzer over REST.

Postgres (database_url) stores analyses, Redis (redis.addr) caches results by
content hash, and in dev mode diagnostics go to Mongo (mongo.uri) or Postgres.
Each backend is optional.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := appConfig.Server.Port
	if servePort != 0 {
		port = servePort
	}

	b := connectBackends(ctx, appConfig, appLogger, true)
	defer b.Close()

	analyzer, err := buildAnalyzer(appConfig, appLogger, b.diagnosticsStore())
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}

	cfg := server.Config{
		Port:           port,
		MaxUploadBytes: appConfig.Server.MaxUploadBytes,
		RateLimit:      ratelimit.DefaultConfig(appConfig.Server.RateLimit),
		Analyzer:       analyzer,
		Logger:         appLogger,
	}
	// Assigned only when connected so the interfaces stay nil otherwise
	if b.db != nil {
		cfg.Store = b.db
	}
	if b.cache != nil {
		cfg.Cache = b.cache
	}

	appLogger.Info("starting resume analyzer API",
		zap.Int("port", port),
		zap.Bool("persistence", b.db != nil),
		zap.Bool("cache", b.cache != nil),
		zap.Bool("dev_mode", appConfig.DevMode),
		zap.String("rules_version", analyzer.RulesVersion()))

	return server.New(cfg).Start(ctx)
}
