package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sorbetero/sorbetero-backend/api/middleware"
	"github.com/sorbetero/sorbetero-backend/api/routes"
	"github.com/sorbetero/sorbetero-backend/internal/drums"
	"github.com/sorbetero/sorbetero-backend/internal/flavors"
	"github.com/sorbetero/sorbetero-backend/internal/orders"
	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/internal/vendors"
	"github.com/sorbetero/sorbetero-backend/pkg/config"
	"github.com/sorbetero/sorbetero-backend/pkg/db"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
	"github.com/sorbetero/sorbetero-backend/pkg/migrate"
	"github.com/sorbetero/sorbetero-backend/pkg/redis"
)

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
	vendorsRepo := vendors.NewRepository(conn)
	flavorsRepo := flavors.NewRepository(conn)
	drumsRepo := drums.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	engine, err := subscriptions.NewEngine(subscriptions.EngineParams{DB: dbClient})
	if err != nil {
		logg.Error(context.Background(), "failed to create downgrade engine", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.Params{
		Vendors: vendorsRepo,
		Flavors: flavorsRepo,
		Drums:   drumsRepo,
		Orders:  ordersRepo,
		Engine:  engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	flavorsService, err := flavors.NewService(flavorsRepo, time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to create flavor service", err)
		os.Exit(1)
	}

	drumsService, err := drums.NewService(drums.Params{DB: dbClient, Repo: drumsRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create drum service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	gate, err := middleware.NewLimitGate(middleware.LimitGateParams{
		Subscriptions: subscriptionsService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create limit gate", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gate,
			subscriptionsService,
			flavorsService,
			drumsService,
			ordersService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
