// Package main is the entry point for the ThemeDrop submission server.
// It loads configuration, connects to services, sets up routing and the
// Discord bot, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"themedrop/internal/cache"
	"themedrop/internal/config"
	"themedrop/internal/database"
	"themedrop/internal/discord"
	"themedrop/internal/handlers"
	"themedrop/internal/ingest"
	"themedrop/internal/router"
	"themedrop/internal/storage"
	"themedrop/internal/store"
)

func main() {
	// Structured logger — text output, debug level in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Ensure the upload cache directory exists.
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		slog.Error("failed to create cache directory", "dir", cfg.CacheDir, "error", err)
		os.Exit(1)
	}

	themeStore := store.NewThemeStore(db)

	// Connect to Valkey for the listing cache (optional — the service
	// works without it, every listing then hits the database).
	var listing *cache.ListingCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey not available — listing cache disabled", "error", err)
	} else {
		defer valkeyClient.Close()
		listing = cache.NewListingCache(valkeyClient, cache.DefaultListingTTL)
	}

	// Connect to S3-compatible object storage (optional — packages stay
	// on the local cache disk without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient == nil {
		slog.Warn("s3 storage not configured — theme packages stay on local disk")
	}

	// Start the Discord bot (optional — without it, submissions are not
	// announced and moderation happens over HTTP only).
	bot, err := discord.New(cfg.DiscordToken, cfg.DiscordAppID, cfg.DiscordGuildID, cfg.DiscordChannelID, themeStore)
	if err != nil {
		slog.Error("failed to create discord bot", "error", err)
		os.Exit(1)
	}
	var announcer ingest.Announcer
	var notifier handlers.Notifier
	if bot != nil {
		if err := bot.Open(); err != nil {
			slog.Error("failed to start discord bot", "error", err)
			os.Exit(1)
		}
		defer bot.Close()
		announcer = bot
		notifier = bot
	} else {
		slog.Warn("discord not configured — submissions will not be announced")
	}

	// Background ingestion of uploaded theme packages. The invalidator
	// stays a nil interface when the cache is absent.
	var invalidator ingest.Invalidator
	if listing != nil {
		invalidator = listing
	}
	ingestSvc := ingest.New(cfg.CacheDir, themeStore, announcer, storageClient, invalidator)

	// Create the handler group and router.
	api := handlers.NewAPI(themeStore, ingestSvc, notifier, listing, cfg.CacheDir)
	r, stopLimiter := router.New(api, cfg.APISecret)
	defer stopLimiter()

	// Create the HTTP server with sensible timeouts. ReadTimeout must
	// accommodate slow multipart uploads of full theme packages.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
