// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Dalley marketplace server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dalley/internal/ai"
	"dalley/internal/app"
	"dalley/internal/auth"
	"dalley/internal/backend"
	"dalley/internal/cache"
	"dalley/internal/config"
	"dalley/internal/database"
	"dalley/internal/handlers"
	"dalley/internal/middleware"
	"dalley/internal/router"
	"dalley/internal/storage"
	"dalley/internal/store"
	"dalley/internal/tokenstore"
	"dalley/web"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if !cfg.IsDev() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

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

	// The administrator account moderates authors; it is created once.
	adminID, err := database.SeedAdmin(context.Background(), db, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		slog.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (token persistence and revocations).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Connect to S3-compatible object storage for previews and files.
	storageClient, err := storage.New(storage.Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		ImagesBucket: cfg.S3ImagesBucket,
		FilesBucket:  cfg.S3FilesBucket,
		PublicURL:    cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	slog.Info("s3 storage connected",
		"endpoint", cfg.S3Endpoint,
		"images_bucket", cfg.S3ImagesBucket,
		"files_bucket", cfg.S3FilesBucket,
	)

	// Initialize data stores and the identity service.
	accounts := store.NewAccountStore(db)
	authService := auth.NewService(accounts, auth.NewValkeyRevocations(valkeyClient), cfg.JWTSecret, cfg.TokenTTL)

	deps := app.Deps{
		Backend: backend.Backend{
			Auth:      authService,
			Profiles:  store.NewProfileStore(db),
			Templates: store.NewTemplateStore(db),
			Storage:   storageClient,
		},
		AdminID: adminID,
		Briefs: ai.NewBriefGenerator(ai.NewGemini(ai.ProviderConfig{
			APIKey:  cfg.GeminiKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})),
	}

	// One coordinator per browser, restored from Valkey after eviction.
	hub := app.NewHub(deps, tokenstore.NewStore(valkeyClient), cfg.ClientIdle)
	defer hub.Stop()

	pages, err := handlers.NewPages(web.StaticFS)
	if err != nil {
		slog.Error("failed to load page shell", "error", err)
		os.Exit(1)
	}

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()
	writeLimiter := middleware.NewRateLimiter(20, time.Minute)
	defer writeLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Options{
		Hub:            hub,
		API:            handlers.NewAPI(),
		Pages:          pages,
		Static:         web.StaticFS,
		Cookies:        tokenstore.NewCookies(cfg.JWTSecret, cfg.SecureCookies()),
		Secure:         cfg.SecureCookies(),
		StorageOrigins: storageOrigins(cfg),
		AuthLimiter:    authLimiter,
		WriteLimiter:   writeLimiter,
		Checks: map[string]router.Check{
			"postgres": db.PingContext,
			"valkey":   func(ctx context.Context) error { return valkeyClient.Ping(ctx).Err() },
		},
	})

	// Create the HTTP server with sensible timeouts.
	// ReadTimeout must accommodate template uploads of up to 60 MB and
	// WriteTimeout the brief endpoint waiting on the model.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
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

// storageOrigins returns the scheme and host previews are served from.
func storageOrigins(cfg *config.Config) []string {
	raw := cfg.S3PublicURL
	if raw == "" {
		raw = cfg.S3Endpoint
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}
