package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TFMV/InstitutionMatchPro/internal/registry"
	"github.com/TFMV/InstitutionMatchPro/pkg/api"
	"github.com/TFMV/InstitutionMatchPro/pkg/config"
	"github.com/TFMV/InstitutionMatchPro/pkg/db"
	"github.com/TFMV/InstitutionMatchPro/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create the database connection pool
	pool, err := db.NewConnection(ctx, cfg.ConnString())
	if err != nil {
		logger.Fatal("failed to create database connection pool", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	store := db.NewStore(pool)

	nameRules, addressRules, err := registry.ResolveRules(ctx, cfg.RulesFile, store)
	if err != nil {
		logger.Fatal("failed to load normalization rules", zap.Error(err))
	}
	engine, err := registry.NewEngine(nameRules, addressRules, registry.EngineConfig{
		CacheTTL:      cfg.Cache.TTL,
		CacheCapacity: cfg.Cache.Capacity,
		ShortlistSize: cfg.Matching.ShortlistSize,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build matching engine", zap.Error(err))
	}

	service := registry.NewService(store, engine.Matcher, engine.Grouper, registry.Options{
		MaxTargets: cfg.Limits.MaxTargets,
		Workers:    cfg.Grouping.Workers,
		Logger:     logger,
	})

	// Set up the HTTP server
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(service, logger, cfg.Grouping.Threshold),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
