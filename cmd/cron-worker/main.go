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

	"github.com/sorbetero/sorbetero-backend/internal/cron"
	"github.com/sorbetero/sorbetero-backend/internal/drums"
	"github.com/sorbetero/sorbetero-backend/internal/flavors"
	"github.com/sorbetero/sorbetero-backend/internal/orders"
	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/internal/vendors"
	"github.com/sorbetero/sorbetero-backend/pkg/config"
	"github.com/sorbetero/sorbetero-backend/pkg/db"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
	"github.com/sorbetero/sorbetero-backend/pkg/metrics"
	"github.com/sorbetero/sorbetero-backend/pkg/migrate"
	"github.com/sorbetero/sorbetero-backend/pkg/redis"
)

const lockKeyFormat = "sb:cron-worker:lock:%s"

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	engine, err := subscriptions.NewEngine(subscriptions.EngineParams{DB: dbClient})
	if err != nil {
		logg.Error(context.Background(), "failed to create downgrade engine", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.Params{
		Vendors: vendors.NewRepository(conn),
		Flavors: flavors.NewRepository(conn),
		Drums:   drums.NewRepository(conn),
		Orders:  orders.NewRepository(conn),
		Engine:  engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	expiryJob, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:        logg,
		Subscriptions: subscriptionsService,
		Metrics:       metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:    logg,
		Registry:  cron.NewRegistry(expiryJob),
		Lock:      lock,
		Metrics:   metricsCollector,
		RunAtHour: cfg.Cron.RunAtHour,
		Now:       time.Now,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
