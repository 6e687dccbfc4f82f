package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/brokerledger/brokerledger/internal/app"
	"github.com/brokerledger/brokerledger/internal/auth"
	"github.com/brokerledger/brokerledger/internal/invoicing"
	"github.com/brokerledger/brokerledger/internal/ledger"
	"github.com/brokerledger/brokerledger/internal/party"
	"github.com/brokerledger/brokerledger/internal/platform/cache"
	"github.com/brokerledger/brokerledger/internal/platform/db"
	"github.com/brokerledger/brokerledger/internal/reporting"
	"github.com/brokerledger/brokerledger/internal/shared"
	"github.com/brokerledger/brokerledger/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis backs both the report cache and the auth token store, so the
	// API cannot start without it.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	activityLogger := shared.NewActivityLogger(pool)

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	guard := auth.NewMiddleware(logger, tokens)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService, guard)

	partyRepo := party.NewRepository(pool)
	partyService := party.NewService(partyRepo, activityLogger, logger)
	partyHandler := party.NewHandler(logger, partyService, guard)

	invoiceRepo := invoicing.NewRepository(pool)

	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reporting.NewService(invoiceRepo, reportCache, reporting.Settings{
		DefaultCurrency: cfg.DefaultCurrency,
		DashboardWindow: cfg.DashboardWindow,
	})
	reportingHandler := reporting.NewHandler(logger, reportService, guard)

	// Invoice writes bump the cache version and queue an eager refresh for
	// the worker to rebuild the reports.
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("job queue close", slog.Any("error", err))
		}
	}()
	reportInvalidator := jobs.NewReportInvalidator(reportCache, jobsClient, logger)

	invoiceService := invoicing.NewService(invoiceRepo, activityLogger, reportInvalidator, logger)
	invoiceHandler := invoicing.NewHandler(logger, invoiceService, guard)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, activityLogger, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Guard:            guard,
		AuthHandler:      authHandler,
		PartyHandler:     partyHandler,
		InvoiceHandler:   invoiceHandler,
		LedgerHandler:    ledgerHandler,
		ReportingHandler: reportingHandler,
		Pool:             pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
