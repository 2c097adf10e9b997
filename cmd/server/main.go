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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/mailrecon/internal/adapter/http"
	"github.com/iho/mailrecon/internal/adapter/http/handler"
	"github.com/iho/mailrecon/internal/adapter/http/middleware"
	"github.com/iho/mailrecon/internal/adapter/mailbox"
	postgresRepo "github.com/iho/mailrecon/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/mailrecon/internal/adapter/repository/redis"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/config"
	"github.com/iho/mailrecon/internal/infrastructure/eventpublisher"
	"github.com/iho/mailrecon/internal/infrastructure/logger"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
	"github.com/iho/mailrecon/internal/infrastructure/postgres"
	"github.com/iho/mailrecon/internal/infrastructure/redis"
	"github.com/iho/mailrecon/internal/infrastructure/scheduler"
	"github.com/iho/mailrecon/internal/provider"
	"github.com/iho/mailrecon/internal/usecase"
)

const (
	rateLimiterIdle   = 10 * time.Minute
	poolStatsInterval = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	m := metrics.New()

	// Connect to PostgreSQL
	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancelConnect()
	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		Metrics:     m,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return err
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	commRepo := postgresRepo.NewCommunicationRepository(pool)
	expenseRepo := postgresRepo.NewExpenseRepository(pool)
	candidateRepo := postgresRepo.NewCandidateRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	postingRepo := postgresRepo.NewPostingRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	scanStateRepo := postgresRepo.NewScanStateRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(logger.Component(log, "retrier"))
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	accountCache := redisRepo.NewCache(redisClient)

	// Initialize use cases
	factory := usecase.NewPostingFactory(postgresRepo.NewAccountCodeRepository(pool), accountCache, cfg.AccountCacheTTL)
	classifierUC := usecase.NewClassifierUseCase(
		txManager, movementRepo, commRepo, expenseRepo, outboxRepo,
		postgresRepo.NewPropertyRepository(pool), postgresRepo.NewAgentRepository(pool),
		idGen, m,
	)
	postingUC := usecase.NewPostingUseCase(txManager, postingRepo, expenseRepo, outboxRepo, retrier, factory, idGen, m)
	reconciliationUC := usecase.NewReconciliationUseCase(
		txManager, movementRepo, candidateRepo, transactionRepo, outboxRepo, retrier, idGen, m,
		usecase.ReconciliationConfig{
			ToleranceDays:  cfg.ReconcileToleranceDays,
			MaxPerMovement: cfg.ReconcileMaxPerMovement,
			CandidatePool:  cfg.ReconcileCandidatePool,
		},
	)
	guard := usecase.NewScanGuard(scanStateRepo, idGen, cfg.ScanScope, cfg.ScanLeaseTTL)
	scanUC := usecase.NewScanUseCase(
		guard,
		mailbox.NewDirectoryFetcher(cfg.MaildirPath, logger.Component(log, "mailbox")),
		provider.NewDefaultRegistry(cfg.BankSenders, cfg.UtilitySenders),
		classifierUC,
		reconciliationUC,
		scanStateRepo,
		logger.Component(log, "scan"),
		m,
		scanConfig(cfg),
	)

	// Outbox dispatch
	outboxLog := logger.Component(log, "outbox")
	dispatcher := eventpublisher.NewDispatcher(eventpublisher.NewLogPublisher(outboxLog))
	dispatcher.Handle(domain.EventTypeExpenseDetected, eventpublisher.NewExpenseDetectedHandler(postingUC))
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  dispatcher,
		Logger:     outboxLog,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	sched, err := scheduler.New(cfg.ScanSchedule, scanUC, logger.Component(log, "scheduler"))
	if err != nil {
		return err
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ScanHandler:           handler.NewScanHandler(scanUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		CommunicationHandler:  handler.NewCommunicationHandler(classifierUC),
		PostingHandler:        handler.NewPostingHandler(postingUC),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient, cfg.MaildirPath),
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           rateLimiter,
		Metrics:               m,
		MetricsHandler:        promhttp.Handler(),
		Logger:                logger.Component(log, "http"),
	})
	server := newHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ignoreCanceled(publisher.Start(gctx))
	})

	g.Go(func() error {
		log.Info().Str("schedule", cfg.ScanSchedule).Msg("starting scan scheduler")
		return ignoreCanceled(sched.Start(gctx))
	})

	g.Go(func() error {
		postgres.ReportPoolStats(gctx, pool, m, poolStatsInterval)
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(rateLimiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := rateLimiter.CleanupLimiters(rateLimiterIdle); n > 0 {
					log.Debug().Int("removed", n).Msg("pruned idle rate limiters")
				}
			}
		}
	})

	return g.Wait()
}

func scanConfig(cfg *config.Config) usecase.ScanConfig {
	return usecase.ScanConfig{
		Scope:         cfg.ScanScope,
		LookbackDays:  cfg.ScanLookbackDays,
		AutoReconcile: cfg.ScanAutoReconcile,
	}
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

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
