package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/shortlink/internal/cache"
	"github.com/mmeshcher/shortlink/internal/config"
	"github.com/mmeshcher/shortlink/internal/handler"
	"github.com/mmeshcher/shortlink/internal/logger"
	"github.com/mmeshcher/shortlink/internal/repository"
	"github.com/mmeshcher/shortlink/internal/service"
)

func main() {
	bootstrap, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		bootstrap.Sugar().Warnw("Ignoring .env file", "error", err.Error())
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		bootstrap.Sugar().Fatalw("Configuration error", "error", err.Error())
	}

	zlog, err := logger.New(cfg.LogLevel, false)
	if err != nil {
		bootstrap.Sugar().Fatalw("Failed to create logger", "error", err.Error())
	}
	defer zlog.Sync()

	sugar := zlog.Sugar()
	sugar.Infow(
		"Configuration loaded",
		"server_address", cfg.ServerAddress,
		"base_url", cfg.BaseURL,
		"database", cfg.UsesDatabase(),
		"file_storage_path", cfg.FileStoragePath,
		"cache_backend", cfg.CacheBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		sugar.Fatalw("Server stopped with error", "error", err.Error())
	}

	sugar.Infow("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	store, err := newStore(ctx, cfg, zlog)
	if err != nil {
		return err
	}

	c, err := cache.New(ctx, cache.Options{
		Backend:       cfg.CacheBackend,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		TTL:           cfg.CacheTTL,
		Size:          cfg.CacheSize,
	}, zlog)
	if err != nil {
		zlog.Warn("Cache unavailable, falling back to in-memory cache",
			zap.String("backend", cfg.CacheBackend), zap.Error(err))
		c = cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
	}

	svc := service.NewShortenerService(store, c, zlog, service.WithBaseURL(cfg.BaseURL))
	defer func() {
		if err := svc.Close(); err != nil {
			zlog.Error("Failed to close resources", zap.Error(err))
		}
	}()

	h := handler.NewHandler(svc, zlog)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Sugar().Infow("Server starting", "address", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (service.Store, error) {
	if cfg.UsesDatabase() {
		store, err := repository.NewPostgresRepository(ctx, cfg.DatabaseDSN, repository.PoolConfig{
			MaxConns: cfg.DBMaxConns,
		}, zlog)
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		zlog.Info("Using PostgreSQL repository")
		return store, nil
	}

	store, err := repository.NewMemoryRepository(cfg.FileStoragePath, zlog)
	if err != nil {
		return nil, fmt.Errorf("open in-memory repository: %w", err)
	}
	zlog.Info("Using in-memory repository", zap.String("file_storage_path", cfg.FileStoragePath))
	return store, nil
}
