package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/udharbook/cmd/worker/cli"
	"github.com/odyssey-erp/udharbook/internal/app"
	jobmetrics "github.com/odyssey-erp/udharbook/internal/jobs"
	"github.com/odyssey-erp/udharbook/internal/platform/cache"
	"github.com/odyssey-erp/udharbook/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	trigger := flag.String("trigger", "", "enqueue one job by task type and exit")
	stats := flag.Bool("stats", false, "print default queue stats and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if *trigger != "" || *stats {
		if err := runCLI(ctx, cfg.RedisAddr, *trigger, *stats); err != nil {
			logger.Error("jobs cli", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

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

	svc := app.NewServices(app.ServiceDeps{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Redis:  redisClient,
	})
	metrics := jobmetrics.NewMetrics(nil)

	reminderJob := jobs.NewReminderScanJob(svc.Accounts, svc.Credit, logger, metrics)
	warmupJob := jobs.NewAnalyticsWarmupJob(svc.Accounts, svc.Analytics, logger, metrics)

	reminderTask, err := jobs.NewReminderScanTask(-1)
	if err != nil {
		logger.Error("build reminder task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewAnalyticsWarmupTask("")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Location:  cfg.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCreditReminderScan, Handler: reminderJob.Handle},
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReminderScanCron, Task: reminderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCLI(ctx context.Context, redisAddr, trigger string, stats bool) error {
	c, err := cli.NewJobsCLI(redisAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	if trigger != "" {
		info, err := c.Trigger(ctx, trigger)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s as %s\n", trigger, info.ID)
	}
	if stats {
		s, err := c.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
	}
	return nil
}
