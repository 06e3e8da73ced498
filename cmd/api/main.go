package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmrozas/pharmaflow-backend/api/routes"
	"github.com/dmrozas/pharmaflow-backend/internal/pods"
	"github.com/dmrozas/pharmaflow-backend/internal/salesorders"
	"github.com/dmrozas/pharmaflow-backend/internal/shipments"
	"github.com/dmrozas/pharmaflow-backend/pkg/config"
	"github.com/dmrozas/pharmaflow-backend/pkg/db"
	"github.com/dmrozas/pharmaflow-backend/pkg/inventoryapi"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
	"github.com/dmrozas/pharmaflow-backend/pkg/migrate"
	"github.com/dmrozas/pharmaflow-backend/pkg/redis"
	"github.com/dmrozas/pharmaflow-backend/pkg/salesorderapi"
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

	salesOrderService, err := salesorders.NewService(salesorders.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales order service", err)
		os.Exit(1)
	}
	shipmentRepo := shipments.NewRepository(dbClient.DB())
	shipmentService, err := shipments.NewService(shipmentRepo, dbClient, orderGateway, inventoryGateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment service", err)
		os.Exit(1)
	}
	podService, err := pods.NewService(pods.NewRepository(dbClient.DB()), shipmentRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create pod service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, salesOrderService, shipmentService, podService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
