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

	"github.com/odyssey-erp/udharbook/internal/accounts"
	analytichttp "github.com/odyssey-erp/udharbook/internal/analytics/http"
	"github.com/odyssey-erp/udharbook/internal/app"
	"github.com/odyssey-erp/udharbook/internal/backup"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/insights"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/observability"
	"github.com/odyssey-erp/udharbook/internal/platform/cache"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
	"github.com/odyssey-erp/udharbook/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr, 0)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := app.OpenStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Error("open store", slog.String("driver", cfg.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.StoreDriver != app.StoreRedis {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("store close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	svc := app.NewServices(app.ServiceDeps{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Redis:   redisClient,
		Metrics: metrics,
	})

	sessionManager := shared.NewSessionManager(redisClient, "udhar_session", cfg.StorePrefix, cfg.SessionTTL, cfg.IsProduction())

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AccountsHandler:  accounts.NewHandler(logger, svc.Accounts, sessionManager),
		CustomersHandler: customers.NewHandler(logger, svc.Customers),
		CreditHandler:    credit.NewHandler(logger, svc.Credit),
		InventoryHandler: inventory.NewHandler(logger, svc.Inventory),
		SalesHandler:     sales.NewHandler(logger, svc.Sales),
		AnalyticsHandler: analytichttp.NewHandler(logger, svc.Analytics),
		InsightsHandler:  insights.NewHandler(logger, svc.Insights),
		BackupHandler:    backup.NewHandler(logger, svc.Backup),
		JobHandler:       jobs.NewHandler(inspector, jobClient, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
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
