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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/goreconcile/internal/adapter/http"
	"github.com/iho/goreconcile/internal/adapter/http/handler"
	"github.com/iho/goreconcile/internal/adapter/http/middleware"
	"github.com/iho/goreconcile/internal/adapter/parser"
	"github.com/iho/goreconcile/internal/adapter/payee"
	postgresRepo "github.com/iho/goreconcile/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/goreconcile/internal/adapter/repository/redis"
	"github.com/iho/goreconcile/internal/infrastructure/config"
	"github.com/iho/goreconcile/internal/infrastructure/eventpublisher"
	"github.com/iho/goreconcile/internal/infrastructure/logger"
	"github.com/iho/goreconcile/internal/infrastructure/metrics"
	"github.com/iho/goreconcile/internal/infrastructure/postgres"
	"github.com/iho/goreconcile/internal/infrastructure/redis"
	"github.com/iho/goreconcile/internal/usecase"
)

const limiterCleanupInterval = time.Minute

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply migrations before serving
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	ledger := postgresRepo.NewLedger(pool)
	txManager := postgresRepo.NewTxManager(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(
		postgresRepo.WithRetrierLogger(appLogger),
		postgresRepo.WithRetrierMetrics(m),
	)
	payees := payee.NewCachedDirectory(postgresRepo.NewPayeeRepository(pool), cfg.PayeeCacheTTL)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	opts := []usecase.Option{
		usecase.WithMetrics(m),
		usecase.WithLogger(appLogger),
		usecase.WithRetrier(retrier),
	}
	importUC := usecase.NewImportUseCase(txManager, ledger,
		parser.NewCSVStatementParser(cfg.Separator()), parser.NewInvoiceDocumentParser(), idGen, opts...)
	allocationUC := usecase.NewAllocationUseCase(txManager, ledger, payees, idGen, opts...)
	paymentUC := usecase.NewPaymentUseCase(txManager, ledger, idGen, opts...)
	reconciliationUC := usecase.NewReconciliationUseCase(txManager, ledger, idGen, opts...)
	matchingUC := usecase.NewMatchingUseCase(ledger, opts...)
	settlementUC := usecase.NewSettlementUseCase(ledger, opts...)
	balanceUC := usecase.NewBalanceUseCase(ledger, opts...)

	// Relay outbox events
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: ledger.Outbox,
		Publisher:  eventpublisher.NewLogPublisher(appLogger),
		Logger:     appLogger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	rateLimiter := newRateLimiter(cfg, m)
	if rateLimiter != nil {
		go cleanupLimiters(ctx, rateLimiter, appLogger)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ImportHandler:         handler.NewImportHandler(importUC),
		AllocationHandler:     handler.NewAllocationHandler(allocationUC),
		PaymentHandler:        handler.NewPaymentHandler(paymentUC),
		ReconciliationHandler: handler.NewReconciliationHandler(matchingUC, settlementUC, reconciliationUC),
		LedgerHandler:         handler.NewLedgerHandler(balanceUC, ledger.Audit),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		Logger:                appLogger,
		Metrics:               m,
		MetricsHandler:        promhttp.Handler(),
		RateLimiter:           rateLimiter,
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		MaxBodyBytes:          cfg.HTTPMaxBodyBytes,
	})

	server := newHTTPServer(cfg, router)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// newRateLimiter returns nil when rate limiting is disabled.
func newRateLimiter(cfg *config.Config, m *metrics.Metrics) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	var hits prometheus.Counter
	if m != nil {
		hits = m.RateLimitHits
	}
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, hits)
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, l zerolog.Logger) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupLimiters(5 * limiterCleanupInterval); n > 0 {
				l.Debug().Int("evicted", n).Msg("rate limiter visitors evicted")
			}
		}
	}
}
