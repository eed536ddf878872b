// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/dwarfdk/willow-bts/internal/cache"
	"github.com/dwarfdk/willow-bts/internal/config"
	"github.com/dwarfdk/willow-bts/internal/exchange"
	"github.com/dwarfdk/willow-bts/internal/handler"
	"github.com/dwarfdk/willow-bts/internal/logging"
	"github.com/dwarfdk/willow-bts/internal/merge"
	"github.com/dwarfdk/willow-bts/internal/middleware"
	"github.com/dwarfdk/willow-bts/internal/scheduler"
	"github.com/dwarfdk/willow-bts/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "btsd - Bonnier translation sync daemon\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BTS_SITE_HANDLE        Site handle scoping external ids (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BTS_DB_PATH            SQLite database path (default: ./data/bts.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BTS_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BTS_TOPIC_ARN          SNS topic for outbound requests (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BTS_AWS_REGION         AWS region (default: eu-west-1)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BTS_REDIS_URL          Redis URL for distributed dedup (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("btsd %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()

	// Message-id dedup: Redis when configured, in-memory otherwise.
	var dedup cache.Deduper
	dedupTTL := time.Duration(cfg.DedupTTL) * time.Second
	if cfg.UseRedisDedup() {
		dedup, err = cache.NewRedisDeduper(cache.RedisOptions{
			URL:    cfg.RedisURL,
			Prefix: cfg.CachePrefix,
			TTL:    dedupTTL,
		})
		if err != nil {
			slog.Warn("redis dedup unavailable, falling back to memory", "error", err)
			dedup = cache.NewMemoryDeduper(dedupTTL)
		} else {
			slog.Info("dedup cache initialized", "backend", "redis", "ttl", dedupTTL)
		}
	} else {
		dedup = cache.NewMemoryDeduper(dedupTTL)
		slog.Info("dedup cache initialized", "backend", "memory", "ttl", dedupTTL)
	}
	defer func() { _ = dedup.Close() }()

	cs := store.NewContentStore(db)
	engine := merge.New(cs, logger)
	router := exchange.NewRouter(cfg, cs, engine, dedup, logger)

	// Outbound publishing is optional; without a topic the send endpoint
	// answers 503 and the webhook still merges inbound deliveries.
	var sender *exchange.Sender
	if cfg.PublishEnabled() {
		publisher, err := exchange.NewSNSPublisher(ctx, cfg.AWSRegion, cfg.TopicARN)
		if err != nil {
			return fmt.Errorf("initializing SNS publisher: %w", err)
		}
		sender = exchange.NewSender(cfg, cs, publisher, logger)
		slog.Info("outbound publishing enabled", "topic", cfg.TopicARN, "region", cfg.AWSRegion)
	} else {
		slog.Warn("BTS_TOPIC_ARN not set, outbound publishing disabled")
	}

	// Start the overdue-translation sweep
	sched := scheduler.New(db, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	webhookHandler := handler.NewWebhookHandler(router, logger)
	articlesHandler := handler.NewArticlesHandler(cfg, cs, sender, logger)
	healthHandler := handler.NewHealthHandler(db)

	webhookLimiter := middleware.NewRateLimiter(cfg.WebhookRPS, cfg.WebhookBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", healthHandler.Health)
	r.Get("/healthz/live", healthHandler.Liveness)
	r.Get("/healthz/ready", healthHandler.Readiness)

	r.Route("/bts/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(webhookLimiter.Middleware())
			r.Post("/aws/sns", webhookHandler.Receive)
			r.Put("/aws/sns", webhookHandler.Receive)
			r.Patch("/aws/sns", webhookHandler.Receive)
		})
		r.Get("/articles/{id}", articlesHandler.Get)
		r.Post("/articles/{id}/send", articlesHandler.Send)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "site", cfg.SiteHandle)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
