package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmrozas/pharmaflow-backend/internal/reconciler"
	"github.com/dmrozas/pharmaflow-backend/internal/shipments"
	"github.com/dmrozas/pharmaflow-backend/pkg/config"
	"github.com/dmrozas/pharmaflow-backend/pkg/db"
	"github.com/dmrozas/pharmaflow-backend/pkg/inventoryapi"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
	"github.com/dmrozas/pharmaflow-backend/pkg/metrics"
	"github.com/dmrozas/pharmaflow-backend/pkg/migrate"
	"github.com/dmrozas/pharmaflow-backend/pkg/redis"
	"github.com/dmrozas/pharmaflow-backend/pkg/salesorderapi"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconciler-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	orderGateway, err := salesorderapi.NewClient(cfg.Upstream.SalesOrderBaseURL, salesorderapi.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create sales order client", err)
		os.Exit(1)
	}
	inventoryGateway, err := inventoryapi.NewClient(cfg.Upstream.InventoryBaseURL, inventoryapi.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory client", err)
		os.Exit(1)
	}

	shipmentRepo := shipments.NewRepository(dbClient.DB())
	shipmentService, err := shipments.NewService(shipmentRepo, dbClient, orderGateway, inventoryGateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	reservationJob, err := reconciler.NewReservationJob(reconciler.ReservationJobParams{
		Logger:     logg,
		Reader:     shipmentRepo,
		Resolver:   shipmentService,
		Metrics:    jobMetrics,
		StaleAfter: cfg.Reconciler.StaleAfter,
		BatchSize:  cfg.Reconciler.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation job", err)
		os.Exit(1)
	}

	lock, err := reconciler.NewRedisLock(redisClient, redisClient.LockKey("reservation_reconciler"), cfg.Reconciler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler lock", err)
		os.Exit(1)
	}

	service, err := reconciler.NewService(reconciler.ServiceParams{
		Logger:   logg,
		Registry: reconciler.NewRegistry(reservationJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Reconciler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting reconciler worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler worker shutting down gracefully")
}
