package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/harvestlink/harvestlink-backend/internal/cron"
	"github.com/harvestlink/harvestlink-backend/internal/notifications"
	"github.com/harvestlink/harvestlink-backend/internal/stock"
	"github.com/harvestlink/harvestlink-backend/pkg/config"
	"github.com/harvestlink/harvestlink-backend/pkg/db"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
	"github.com/harvestlink/harvestlink-backend/pkg/metrics"
	"github.com/harvestlink/harvestlink-backend/pkg/migrate"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
	"github.com/harvestlink/harvestlink-backend/pkg/redis"
)

const lockKeyFormat = "hl:cron-worker:lock:%s:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	stockRepo := stock.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)

	stockScan, err := cron.NewStockScanJob(cron.StockScanJobParams{
		Logger:        logg,
		Products:      stockRepo,
		Notifications: notificationsRepo,
		Threshold:     cfg.Stock.LowStockThreshold,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stock scan job", err)
		os.Exit(1)
	}

	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	// the hourly scan and the daily cleanups run on separate tickers, each
	// under its own single-instance lock
	scanService, err := newCadenceService(cfg, logg, redisClient, metricsCollector, "stock-scan", cfg.Cron.StockScanInterval, stockScan)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock scan service", err)
		os.Exit(1)
	}
	cleanupService, err := newCadenceService(cfg, logg, redisClient, metricsCollector, "cleanup", cfg.Cron.CleanupInterval, notificationCleanup, outboxRetention)
	if err != nil {
		logg.Error(context.Background(), "failed to create cleanup service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return scanService.Run(groupCtx) })
	group.Go(func() error { return cleanupService.Run(groupCtx) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func newCadenceService(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	metricsCollector *metrics.CronJobMetrics,
	name string,
	interval time.Duration,
	jobs ...cron.Job,
) (*cron.Service, error) {
	lockTTL := 2 * interval
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env, name), lockTTL)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: interval,
	})
}

func lockKey(env, cadence string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env, cadence)
}
