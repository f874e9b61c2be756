package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/harvestlink/harvestlink-backend/api/routes"
	"github.com/harvestlink/harvestlink-backend/internal/assignments"
	"github.com/harvestlink/harvestlink-backend/internal/cart"
	"github.com/harvestlink/harvestlink-backend/internal/notifications"
	"github.com/harvestlink/harvestlink-backend/internal/orders"
	"github.com/harvestlink/harvestlink-backend/internal/pricing"
	"github.com/harvestlink/harvestlink-backend/internal/stock"
	"github.com/harvestlink/harvestlink-backend/pkg/config"
	"github.com/harvestlink/harvestlink-backend/pkg/db"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
	"github.com/harvestlink/harvestlink-backend/pkg/migrate"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
	"github.com/harvestlink/harvestlink-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	deps, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, deps),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Deps, error) {
	gormDB := dbClient.DB()

	calc, err := pricing.FromConfig(cfg.Checkout)
	if err != nil {
		return routes.Deps{}, err
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	stockRepo := stock.NewRepository(gormDB)
	stockSvc, err := stock.NewService(stockRepo, dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}

	cartRepo := cart.NewRepository(gormDB)
	cartSvc, err := cart.NewService(cartRepo, stockRepo, calc)
	if err != nil {
		return routes.Deps{}, err
	}

	notificationsRepo := notifications.NewRepository(gormDB)
	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	milestones, err := notifications.NewMilestoneService(notificationsRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	ordersSvc, err := orders.NewService(
		orders.NewRepository(gormDB),
		cartRepo,
		dbClient,
		outboxSvc,
		milestones,
		calc,
		cfg.Checkout.OrderNoPrefix,
		logg,
	)
	if err != nil {
		return routes.Deps{}, err
	}

	assignmentsSvc, err := assignments.NewService(assignments.NewRepository(gormDB), dbClient, outboxSvc)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Cart:          cartSvc,
		Orders:        ordersSvc,
		Assignments:   assignmentsSvc,
		Notifications: notificationsSvc,
		Stock:         stockSvc,
	}, nil
}
