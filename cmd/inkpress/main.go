// Package main is the entry point for the inkpress API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkpress/internal/ai"
	"inkpress/internal/cache"
	"inkpress/internal/comic"
	"inkpress/internal/config"
	"inkpress/internal/database"
	"inkpress/internal/handlers"
	"inkpress/internal/identity"
	"inkpress/internal/middleware"
	"inkpress/internal/router"
	"inkpress/internal/storage"
	"inkpress/internal/store"
)

func main() {
	// Optional .env file for local development; real environment wins.
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text otherwise.
	slog.SetDefault(newLogger(cfg))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"auth_mode", cfg.AuthMode,
		"image_provider", cfg.ImageProvider,
	)

	// Backing services may still be starting; give them a minute.
	startCtx, startCancel := context.WithTimeout(context.Background(), time.Minute)
	defer startCancel()

	// Connect to PostgreSQL.
	db, err := database.Connect(startCtx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(startCtx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(startCtx, db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (frame cache + comic rate limit).
	valkeyClient, err := cache.Connect(startCtx, net.JoinHostPort(cfg.ValkeyHost, cfg.ValkeyPort), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	taxonomyStore := store.NewTaxonomyStore(db)
	aiGenStore := store.NewAIGenerationStore(db)
	comicStore := store.NewComicStore(db)

	// Identity provider. Tokens are resolved on every request.
	var provider identity.Provider
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		provider = identity.NewJWTVerifier(cfg.AuthJWTSecret)
	default:
		provider = identity.NewRemoteProvider(cfg.AuthURL, cfg.AuthAnonKey)
	}

	// Connect to S3-compatible object storage (optional, uploads answer 503
	// without it).
	var uploader handlers.Uploader
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	switch {
	case err != nil:
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	case storageClient != nil:
		uploader = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	default:
		slog.Warn("s3 storage not configured, uploads disabled")
	}

	// Image providers for comic generation.
	aiRegistry := ai.NewRegistry(cfg.ImageProvider, map[string]ai.ProviderConfig{
		"jimeng": {APIKey: cfg.JimengAPIKey, BaseURL: cfg.JimengBaseURL},
		"openai": {APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIImageModel, BaseURL: cfg.OpenAIBaseURL},
	})
	if !aiRegistry.HasProvider(cfg.ImageProvider) {
		slog.Warn("active image provider has no API key, comic generation will fail",
			"provider", cfg.ImageProvider)
	}
	slog.Info("image providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	generator := comic.NewGenerator(
		aiRegistry,
		cache.NewFrameCache(valkeyClient, cache.DefaultFrameTTL),
		comicStore,
		comic.Options{
			Concurrency: cfg.ComicConcurrency,
			MaxRetries:  cfg.ComicMaxRetries,
		},
	)

	// Rate limits: a coarse in-memory limit per IP on the whole API and a
	// shared Valkey window per user on comic generation.
	apiLimiter := middleware.NewSlidingWindow(300, time.Minute)
	defer apiLimiter.Stop()

	deps := router.Deps{
		Identity:      provider,
		Users:         userStore,
		APILimiter:    apiLimiter,
		Posts:         handlers.NewPosts(postStore),
		Taxonomy:      handlers.NewTaxonomy(taxonomyStore),
		AIGenerations: handlers.NewAIGenerations(aiGenStore),
		AdminUsers:    handlers.NewAdminUsers(userStore),
		AuthSync:      handlers.NewAuthSync(userStore, cfg.AdminEmails),
		Comics:        handlers.NewComics(generator, comicStore),
		Upload:        handlers.NewUpload(uploader),
	}
	if cfg.ComicRateLimit > 0 {
		deps.ComicLimiter = cache.NewFixedWindow(valkeyClient, "comic", cfg.ComicRateLimit, time.Hour)
	}

	// Set up the Chi router with all middleware and routes.
	r := router.New(deps)

	// Create the HTTP server with sensible timeouts.
	// WriteTimeout must accommodate comic generation, which waits on one
	// image API call per scene.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
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

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
