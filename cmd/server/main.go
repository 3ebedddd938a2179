package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gizibunda/backend/config"
	httpDelivery "github.com/gizibunda/backend/internal/delivery/http"
	"github.com/gizibunda/backend/internal/domain"
	"github.com/gizibunda/backend/internal/infrastructure/cache"
	"github.com/gizibunda/backend/internal/infrastructure/oracle"
	"github.com/gizibunda/backend/internal/infrastructure/sqlite"
	"github.com/gizibunda/backend/internal/infrastructure/usda"
	"github.com/gizibunda/backend/internal/pkg/logger"
	"github.com/gizibunda/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Service: "gizibunda-backend",
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server stopped with error", zap.Error(err))
		zlog.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	zlog.Info("starting gizibunda backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.String("fallback_mode", cfg.Resolver.FallbackMode),
	)

	// Local composition store and meal log
	storage, err := sqlite.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer storage.Close()

	if err := seedCompositionStore(storage, cfg.Storage.SeedCSV, zlog); err != nil {
		return err
	}

	// Remote lookup cache
	lookupCache, err := newCache(cfg.Cache)
	if err != nil {
		return err
	}
	if closer, ok := lookupCache.(io.Closer); ok {
		defer closer.Close()
	}

	usdaClient := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL, usda.Options{
		Timeout:         cfg.USDA.Timeout,
		PageSize:        cfg.USDA.PageSize,
		DataTypes:       cfg.USDA.DataTypes,
		MaxAttempts:     cfg.USDA.MaxAttempts,
		RetryBackoff:    cfg.USDA.RetryBackoff,
		RequestsPerHour: cfg.RateLimit.USDA,
	}, zlog)
	if cfg.Server.Environment == "development" {
		usdaClient.SetDebug(true)
		zlog.Debug("USDA client debug mode enabled")
	}

	oracleClient := oracle.NewClient(oracle.Options{
		APIKey:       cfg.Oracle.APIKey,
		BaseURL:      cfg.Oracle.BaseURL,
		Model:        cfg.Oracle.Model,
		Temperature:  cfg.Oracle.Temperature,
		Timeout:      cfg.Oracle.Timeout,
		RetryCount:   cfg.Oracle.RetryCount,
		RetryWait:    cfg.Oracle.RetryWait,
		RetryMaxWait: cfg.Oracle.RetryMaxWait,
	}, zlog)

	// Usecase layer
	interpreterConfig, err := loadPrompts(cfg.Interpreter)
	if err != nil {
		return err
	}
	interpreter, err := usecase.NewInterpreter(oracleClient, interpreterConfig, zlog)
	if err != nil {
		return err
	}

	normalizer, err := usecase.NewNormalizer(domain.DefaultNutrientAliases)
	if err != nil {
		return err
	}

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinSimilarity:       cfg.Resolver.SimilarityThreshold,
		EnableFuzzyMatching: cfg.Resolver.EnableFuzzyMatching,
	}, zlog)

	resolver := usecase.NewResolver(storage, usdaClient, lookupCache, matcher, normalizer, usecase.ResolverConfig{
		LocalTopK:    cfg.Resolver.LocalTopK,
		FallbackMode: cfg.Resolver.FallbackMode,
		CacheTTL:     cfg.Cache.TTL,
	}, zlog)

	nutritionService := usecase.NewNutritionService(
		interpreter,
		resolver,
		usecase.NewAggregator(normalizer, zlog),
		usecase.NutritionServiceConfig{MaxConcurrency: cfg.Resolver.MaxConcurrency},
		zlog,
	)
	mealLogService := usecase.NewMealLogService(storage, zlog)

	handler := httpDelivery.NewHandler(nutritionService, mealLogService, zlog)
	router := httpDelivery.SetupRouter(cfg, handler, zlog)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		zlog.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zlog.Info("server exited")
	return nil
}

// seedCompositionStore imports the seed CSV into an empty store
func seedCompositionStore(storage *sqlite.Storage, path string, zlog *zap.Logger) error {
	if path == "" {
		return nil
	}

	ctx := context.Background()
	count, err := storage.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("count composition rows: %w", err)
	}
	if count > 0 {
		zlog.Info("composition store already seeded", zap.Int("rows", count))
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed CSV: %w", err)
	}
	defer f.Close()

	imported, err := storage.ImportCSV(ctx, f)
	if err != nil {
		return fmt.Errorf("import seed CSV: %w", err)
	}
	zlog.Info("composition store seeded", zap.String("path", path), zap.Int("rows", imported))
	return nil
}

// newCache builds the remote lookup cache selected by configuration
func newCache(cfg config.CacheConfig) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return redisCache, nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

// loadPrompts reads the optional prompt override files
func loadPrompts(cfg config.InterpreterConfig) (usecase.InterpreterConfig, error) {
	var out usecase.InterpreterConfig
	if cfg.SystemPromptFile != "" {
		data, err := os.ReadFile(cfg.SystemPromptFile)
		if err != nil {
			return out, fmt.Errorf("read system prompt: %w", err)
		}
		out.SystemPrompt = string(data)
	}
	if cfg.DirectiveFile != "" {
		data, err := os.ReadFile(cfg.DirectiveFile)
		if err != nil {
			return out, fmt.Errorf("read directive template: %w", err)
		}
		out.DirectiveTemplate = string(data)
	}
	return out, nil
}
