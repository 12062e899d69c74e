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

	"bank-transfer-saga/config"
	httpHandler "bank-transfer-saga/internal/adapter/http/handler"
	"bank-transfer-saga/internal/adapter/http/middleware"
	"bank-transfer-saga/internal/adapter/storage/memory"
	pgStorage "bank-transfer-saga/internal/adapter/storage/postgres"
	redisStorage "bank-transfer-saga/internal/adapter/storage/redis"
	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/internal/eventbus"
	"bank-transfer-saga/internal/service"
	"bank-transfer-saga/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default ./config.yaml)")
	hashKey := flag.String("hash-key", "", "print the Argon2id hash of an admin key and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := service.NewArgon2HashService().Hash(*hashKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hashing key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bank stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("bank", cfg.Bank.Prefix).
		Str("currency", cfg.Bank.Currency).
		Msg("starting bank transfer saga")

	ctx := context.Background()
	bank := domain.Bank{Prefix: cfg.Bank.Prefix, Currency: domain.Currency(cfg.Bank.Currency)}

	var (
		deadLetters    ports.DeadLetterRepository = memory.NewDeadLetterStore()
		auditSvc       ports.AuditService
		rateLimitStore ports.RateLimitStore
		healthCheckers []ports.HealthChecker
	)

	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pool.Close()

		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}

		deadLetters = pgStorage.NewDeadLetterRepo(pool)
		audit := service.NewAuditService(pgStorage.NewAuditRepo(pool), logger.Component(log, "audit"))
		defer audit.Wait()
		auditSvc = audit
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	}

	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else if cfg.RateLimit.TransfersPerWindow > 0 {
		log.Warn().Msg("ratelimit configured without redis; transfer rate limiting disabled")
	}

	bus := eventbus.New(eventbus.Config{
		Workers:   cfg.Saga.Workers,
		Suspended: cfg.Saga.StartSuspended,
	}, logger.Component(log, "eventbus"))

	bankSvc := service.NewBankService(service.BankConfig{
		Bank:                 bank,
		MaxAttempts:          cfg.Saga.MaxAttempts,
		ReplayFilterCapacity: cfg.Bank.ReplayFilterCapacity,
		ReplayFilterFPRate:   cfg.Bank.ReplayFilterFPRate,
	}, memory.NewAccountStore(bank), bus, deadLetters, logger.Component(log, "bank"))

	if cfg.Notify.WebhookURL != "" {
		notifier := service.NewWebhookNotifier(
			cfg.Notify.WebhookURL,
			cfg.Notify.WebhookSecret,
			&http.Client{Timeout: 10 * time.Second},
			cfg.Notify.RetryIntervals,
			logger.Component(log, "webhook"),
		)
		bus.Subscribe(domain.EventFundsSettled, notifier.HandleFundsSettled)
		defer notifier.Wait()
	}

	bus.Start()
	defer bus.Close()

	if err := seedAccounts(ctx, bankSvc, cfg.Bank, log); err != nil {
		return err
	}

	deps := httpHandler.RouterDeps{
		BankSvc:        bankSvc,
		RateLimitStore: rateLimitStore,
		TransferLimit: middleware.RateLimitRule{
			Limit:  int64(cfg.RateLimit.TransfersPerWindow),
			Window: cfg.RateLimit.Window,
		},
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         logger.Component(log, "http"),
	}
	if cfg.Admin.Enabled() {
		tokenSvc := service.NewJWTTokenService(cfg.Admin.JWTSecret, cfg.Admin.JWTExpiry, cfg.Admin.JWTIssuer)
		deps.TokenSvc = tokenSvc
		deps.AuthSvc = service.NewAuthService(cfg.Admin.Username, cfg.Admin.KeyHash, service.NewArgon2HashService(), tokenSvc)
	} else {
		log.Warn().Msg("admin.key_hash not set; admin routes are unauthenticated")
	}

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      httpHandler.SetupRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Int("held_events", bus.Pending()).Msg("server exited")
	return nil
}

// seedAccounts opens the configured starting accounts so a fresh process has
// something to transfer between.
func seedAccounts(ctx context.Context, bankSvc ports.BankService, cfg config.BankConfig, log zerolog.Logger) error {
	for i := 0; i < cfg.SeedAccounts; i++ {
		view, err := bankSvc.OpenAccount(ctx, cfg.SeedBalance)
		if err != nil {
			return fmt.Errorf("seeding account %d: %w", i+1, err)
		}
		log.Info().
			Str("account_id", view.ID.String()).
			Str("balance", view.Balance.String()).
			Msg("seed account opened")
	}
	return nil
}
