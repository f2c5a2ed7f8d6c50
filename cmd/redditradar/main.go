// Package main wires together the radar service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/redditradar/redditradar/internal/api"
	"github.com/redditradar/redditradar/internal/clock/system"
	"github.com/redditradar/redditradar/internal/config"
	"github.com/redditradar/redditradar/internal/fetcher/reddit"
	"github.com/redditradar/redditradar/internal/hash/sha256"
	"github.com/redditradar/redditradar/internal/id/uuid"
	"github.com/redditradar/redditradar/internal/logging"
	"github.com/redditradar/redditradar/internal/metrics"
	"github.com/redditradar/redditradar/internal/policy/ratepolicy"
	"github.com/redditradar/redditradar/internal/radar"
	"github.com/redditradar/redditradar/internal/runner"
	"github.com/redditradar/redditradar/internal/storage"
	"github.com/redditradar/redditradar/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()
	clock := system.New()
	idGen := uuid.New()
	fingerprinter := sha256.New()

	var store radar.Store
	if cfg.DB.DSN == "" {
		logger.Warn("no database configured, using no-op store")
		store = storage.NewNoOpStore()
	} else {
		if cfg.DB.Migrate {
			version, dirty, err := postgres.RunMigrations(cfg.DB.DSN)
			if err != nil {
				logger.Fatal("run migrations", zap.Error(err))
			}
			logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		pgStore, err := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxContentChars: cfg.Monitor.MaxContentChars,
		}, fingerprinter, logger.Named("store"))
		if err != nil {
			logger.Fatal("connect store", zap.Error(err))
		}
		store = pgStore
	}
	defer store.Close()

	var collector radar.Collector
	switch cfg.Collector.Mode {
	case "mock":
		collector = reddit.NewMockCollector(nil)
		logger.Info("using mock collector")
	default:
		collector, err = reddit.New(reddit.Config{
			BaseURL:   cfg.Reddit.BaseURL,
			UserAgent: cfg.Reddit.UserAgent,
			Timeout:   cfg.FetchTimeout(),
		})
		if err != nil {
			logger.Fatal("init collector", zap.Error(err))
		}
	}

	run := runner.New(collector, store, clock, idGen, runner.Config{
		PageLimit: cfg.Reddit.PageLimit,
		Rate: ratepolicy.Config{
			MaxCallsPerWindow: cfg.Rate.MaxCallsPerMinute,
			MinSpacing:        time.Duration(cfg.Rate.MinSpacingMs) * time.Millisecond,
			RunBudget:         cfg.Rate.RunBudget,
			BackoffBase:       time.Duration(cfg.Rate.BackoffBaseSeconds) * time.Second,
			BackoffMax:        time.Duration(cfg.Rate.BackoffMaxSeconds) * time.Second,
			BlockedKeywords:   cfg.Rate.BlockedKeywords,
		},
	}, logger.Named("runner"))

	apiServer := api.NewServer(run, store, clock, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
