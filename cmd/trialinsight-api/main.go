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

	"github.com/Josconicme/trial-insight/internal/config"
	dbRedis "github.com/Josconicme/trial-insight/internal/db/redis"
	logpkg "github.com/Josconicme/trial-insight/internal/logger"
	"github.com/Josconicme/trial-insight/internal/metrics"
	trialrepo "github.com/Josconicme/trial-insight/internal/repository/trial"
	chiTransport "github.com/Josconicme/trial-insight/internal/transport/chi"
	openaiTransport "github.com/Josconicme/trial-insight/internal/transport/openai"
	"github.com/Josconicme/trial-insight/internal/version"
	healthuc "github.com/Josconicme/trial-insight/internal/usecase/health"
	queryuc "github.com/Josconicme/trial-insight/internal/usecase/query"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "api", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting trial-insight API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterAIMetrics()

	repo := trialrepo.New(store, trialrepo.IndexConfig{
		VectorDim: cfg.Index.VectorDim,
		HNSW:      trialrepo.HNSWConfig{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct},
	})
	// Queries against an empty store must not fail before the first load.
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure trial index", zap.Error(err))
	}

	querySvc := queryuc.New(repo, repo, queryuc.Options{
		MaxPageSize:  cfg.Query.MaxPageSize,
		RelatedLimit: cfg.Query.RelatedLimit,
		StatsTopN:    cfg.Query.StatsTopN,
		MaxRadiusKm:  cfg.Query.MaxRadiusKm,
	})

	healthSvc := healthuc.New(store)
	if cfg.AI.APIKey != "" {
		healthSvc.WithProvider(cfg.AI.Provider, openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:   cfg.AI.APIKey,
			BaseURL:  cfg.AI.BaseURL,
			Model:    cfg.AI.Embedding.Model,
			Provider: cfg.AI.Provider,
			Logger:   logger,
		}))
	}

	server := chiTransport.NewServer(querySvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
