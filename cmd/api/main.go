package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multiledger/config"
	httpHandler "multiledger/internal/adapter/http/handler"
	memStorage "multiledger/internal/adapter/storage/memory"
	pgStorage "multiledger/internal/adapter/storage/postgres"
	redisStorage "multiledger/internal/adapter/storage/redis"
	"multiledger/internal/core/ports"
	"multiledger/internal/service"
	"multiledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("driver", cfg.Storage.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting Multi Ledger")

	ctx := context.Background()

	// Initialize storage backend
	var (
		wallets        ports.WalletStore
		ledger         ports.LedgerLog
		transactor     ports.Transactor
		healthCheckers []ports.HealthChecker
	)

	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		wallets = pgStorage.NewWalletRepo(pool)
		ledger = pgStorage.NewLedgerRepo(pool)
		transactor = pgStorage.NewTransactor(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))

	default: // memory
		store := memStorage.NewStore()
		wallets = store
		ledger = store
		transactor = store
	}

	// Initialize Redis (optional: balance cache, rate limiting, idempotency)
	var (
		balanceCache     ports.BalanceCache
		rateLimitStore   *redisStorage.RateLimitStore
		idempotencyCache *redisStorage.IdempotencyCache
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		balanceCache = redisStorage.NewBalanceCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		idempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	// Initialize core services
	engine := service.NewEngine(wallets, ledger, transactor, balanceCache, cfg.Engine.LockTimeout, log)
	query := service.NewQuery(wallets, ledger, balanceCache, cfg.Engine.BalanceCacheTTL, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Engine:           engine,
		Query:            query,
		RateLimitStore:   rateLimitStore,
		IdempotencyCache: idempotencyCache,
		IdempotencyTTL:   cfg.Engine.IdempotencyTTL,
		HealthCheckers:   healthCheckers,
		Logger:           log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
