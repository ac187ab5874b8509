package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"txguard/internal/api"
	"txguard/internal/config"
	"txguard/internal/lock"
	"txguard/internal/logging"
	"txguard/internal/repository"
	"txguard/internal/repository/memory"
	"txguard/internal/repository/postgres"
	"txguard/internal/risk"
	"txguard/internal/service"
	"txguard/internal/tracing"
	"txguard/pkg/crypto"
	"txguard/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	appName = "txguard"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type stores struct {
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	audits       repository.AuditRepository
	close        func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("version", version),
		slog.String("env", cfg.Env))

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Endpoint:    cfg.OTLPEndpoint,
		Version:     version,
		Environment: cfg.Env,
		SampleRatio: cfg.TraceSampleRatio,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	st, err := setupStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	locker, redisClient := setupLocker(cfg, logger)

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.ApprovalSecret, logger)
	verifier := risk.NewVerifier(cfg.VerifierConfig())
	notificationService := setupNotificationService(cfg, logger)

	verificationService := service.NewVerificationService(
		st.accounts, st.transactions, st.audits,
		locker, verifier, signer, metricsCollector, notificationService,
		service.Config{
			LockTTL:          cfg.LockTTL,
			HistoryLookback:  cfg.HistoryLookback,
			HistoryLimit:     cfg.HistoryLimit,
			ApprovalTokenTTL: cfg.ApprovalTokenTTL,
		},
		logger,
	)

	apiHandler := api.NewAPIHandler(verificationService, logger)
	metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg.HTTPAddr, apiHandler, logger)

	waitForShutdown(cfg.ShutdownTimeout, logger, httpServer, metricsCollector, notificationService)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close failed", slog.String("error", err.Error()))
		}
	}
	if err := st.close(); err != nil {
		logger.Error("Database close failed", slog.String("error", err.Error()))
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error("Tracing shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("Application shutdown complete")
}

func setupStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory storage")
		return &stores{
			accounts:     memory.NewAccountRepository(),
			transactions: memory.NewTransactionRepository(),
			audits:       memory.NewAuditRepository(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.DatabaseURL, postgres.DefaultPoolConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	auditDB, err := postgres.OpenSQL(cfg.DatabaseURL, postgres.DefaultPoolConfig())
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := auditDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		_ = auditDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(ctx, auditDB, "up"); err != nil {
			_ = sqlDB.Close()
			_ = auditDB.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	logger.Info("Using PostgreSQL storage")
	return &stores{
		accounts:     postgres.NewAccountRepository(db),
		transactions: postgres.NewTransactionRepository(db),
		audits:       postgres.NewAuditStore(auditDB),
		close: func() error {
			return errors.Join(sqlDB.Close(), auditDB.Close())
		},
	}, nil
}

func setupLocker(cfg *config.Config, logger *slog.Logger) (lock.Locker, *redis.Client) {
	if cfg.RedisHost == "" {
		logger.Info("REDIS_HOST not set, using in-process account locks")
		return lock.NewMemoryLocker(cfg.LockWait), nil
	}

	client := lock.NewRedisClient(lock.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	logger.Info("Using Redis account locks", slog.String("host", cfg.RedisHost))
	return lock.NewRedisLocker(client, cfg.LockWait, 0, logger), client
}

func setupNotificationService(cfg *config.Config, logger *slog.Logger) *service.NotificationService {
	return service.NewNotificationService(
		&service.LogEmailService{Logger: logger},
		&service.LogSMSService{Logger: logger},
		&service.LogSlackService{Logger: logger},
		cfg.NotificationWorkers,
		logger,
	)
}

func startHTTPServer(addr string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(apiHandler, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	timeout time.Duration,
	logger *slog.Logger,
	httpServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
	notificationService *service.NotificationService,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := notificationService.Shutdown(ctx); err != nil {
		logger.Error("Notification service shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
}
