package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/avforge/catalogstd/internal/cache"
	"github.com/avforge/catalogstd/internal/config"
	"github.com/avforge/catalogstd/internal/logging"
	"github.com/avforge/catalogstd/internal/oracle"
	"github.com/avforge/catalogstd/internal/pipeline"
	"github.com/avforge/catalogstd/internal/store"
	"github.com/avforge/catalogstd/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := slog.Default()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"oracle_provider", cfg.Oracle.Provider,
		"cache_backend", cfg.Cache.Backend,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	cacheStore, err := buildCache(ctx, cfg)
	if err != nil {
		slog.Error("failed to create cache", "error", err, "backend", cfg.Cache.Backend)
		os.Exit(1)
	}

	gen, err := buildGenerator(ctx, cfg)
	if err != nil {
		slog.Error("failed to create oracle generator", "error", err, "provider", cfg.Oracle.Provider)
		os.Exit(1)
	}

	client := oracle.NewClient(gen, cacheStore, log,
		oracle.WithMaxAttempts(cfg.Oracle.MaxAttempts))
	processor := pipeline.NewProcessor(client, log)

	// Run history is optional: only connect when a database is configured.
	var runs *store.Store
	if cfg.Database.URL != "" {
		runs, err = store.New(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer runs.Close()
		slog.Info("run history enabled")
	}

	server, err := web.NewServer(processor, runs, cfg, log)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// buildCache selects the oracle response cache backend from config.
func buildCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		return cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword,
			cfg.Cache.RedisDB, cfg.Cache.TTL)
	default:
		return cache.NewFileStore(cfg.Cache.Dir)
	}
}

// buildGenerator selects the inference backend from config. The mock
// generator keeps the full pipeline runnable without an API key.
func buildGenerator(ctx context.Context, cfg *config.Config) (oracle.Generator, error) {
	if cfg.Oracle.Provider == "gemini" {
		return oracle.NewGeminiGenerator(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model)
	}
	return &oracle.MockGenerator{}, nil
}
