package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agora/internal/config"
	"github.com/kailas-cloud/agora/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/agora/internal/db/redis"
	"github.com/kailas-cloud/agora/internal/domain"
	logpkg "github.com/kailas-cloud/agora/internal/logger"
	"github.com/kailas-cloud/agora/internal/metrics"
	"github.com/kailas-cloud/agora/internal/repository/embcache"
	questionrepo "github.com/kailas-cloud/agora/internal/repository/question"
	voterepo "github.com/kailas-cloud/agora/internal/repository/vote"
	"github.com/kailas-cloud/agora/internal/tracing"
	chiTransport "github.com/kailas-cloud/agora/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/agora/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/agora/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/agora/internal/usecase/health"
	"github.com/kailas-cloud/agora/internal/usecase/indexing"
	questionuc "github.com/kailas-cloud/agora/internal/usecase/question"
	searchuc "github.com/kailas-cloud/agora/internal/usecase/search"
	voteuc "github.com/kailas-cloud/agora/internal/usecase/vote"
	"github.com/kailas-cloud/agora/internal/version"
)

func serveCommand(c *cli.Context) error {
	env := c.String("env")
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting agora API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("semantic_search", cfg.EmbeddingConfigured()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: env,
		Version:     version.Version,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	store, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if c.Bool("migrate") {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Schema applied")
	}

	cache := openCache(ctx, cfg, logger)
	if cache != nil {
		defer cache.Close()
	}

	metrics.RegisterDomainMetrics()

	embedder, embeddingHealth := buildEmbedder(cfg, cache, logger)

	questions := questionrepo.New(store)
	votes := voterepo.New(store)

	indexer, err := indexing.New(indexing.Config{
		Workers: cfg.Embedding.Workers,
		Queue:   cfg.Embedding.Queue,
		Timeout: 3 * time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
	}, embedder, questions, logger)
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.Pinger
	if cache != nil {
		cachePinger = cache
	}

	server := chiTransport.NewServer(
		questionuc.New(questions, votes, indexer),
		searchuc.New(questions, votes, embedder),
		voteuc.New(questions, votes),
		healthuc.New(store, cachePinger, embeddingHealth),
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.UserMiddleware(cfg.Auth.UserHeader))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "agora"),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdown := time.Duration(cfg.HTTP.ShutdownSec) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := indexer.Close(shutdown); err != nil {
		logger.Warn("Indexing jobs still running at shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func migrateCommand(c *cli.Context) error {
	env := c.String("env")
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openDatabase(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(c.Context); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Schema applied")
	return nil
}

func newLogger(env string, cfg config.Config) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

func openDatabase(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.NewStore(postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
		QueryTimeout:    time.Duration(cfg.Database.QueryTimeoutSec) * time.Second,
		SlowQuery:       time.Duration(cfg.Database.SlowQueryMs) * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")
	return store, nil
}

// openCache connects the embedding cache. The cache is optional: when it is
// disabled or unreachable at startup, embeddings are computed on every call.
func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) *dbRedis.Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	cache, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Warn("Embedding cache disabled", zap.Error(err))
		return nil
	}
	if err := cache.WaitForReady(ctx, 5*time.Second); err != nil {
		logger.Warn("Embedding cache disabled", zap.Error(err))
		cache.Close()
		return nil
	}
	logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	return cache
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// Without an API key it returns domain.UnavailableEmbedder.
func buildEmbedder(
	cfg config.Config,
	cache *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker) {
	if !cfg.EmbeddingConfigured() {
		logger.Warn("Embedding API key not set, semantic search disabled")
		return domain.UnavailableEmbedder{}, domain.UnavailableEmbedder{}
	}

	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		APIVersion: ec.APIVersion,
		Headers:    ec.Headers,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(
			base, cache, ec.Model, time.Duration(cfg.Cache.TTLHours)*time.Hour, metrics.EmbeddingCacheTotal, logger,
		)
	}

	logger.Info("Embedder created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Bool("azure", ec.APIVersion != ""),
	)
	return embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger), base
}
