package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mvcampos/oticaflow-backend/api/routes"
	"github.com/mvcampos/oticaflow-backend/internal/checkout"
	"github.com/mvcampos/oticaflow-backend/internal/clients"
	"github.com/mvcampos/oticaflow-backend/internal/inventory"
	"github.com/mvcampos/oticaflow-backend/internal/payment"
	"github.com/mvcampos/oticaflow-backend/internal/products"
	"github.com/mvcampos/oticaflow-backend/internal/repo"
	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/internal/stores"
	"github.com/mvcampos/oticaflow-backend/pkg/config"
	"github.com/mvcampos/oticaflow-backend/pkg/db"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/metrics"
	"github.com/mvcampos/oticaflow-backend/pkg/migrate"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
	"github.com/mvcampos/oticaflow-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	saleMetrics := metrics.NewSaleMetrics(registry)

	base := repo.NewBase(dbClient.DB())
	productCatalog := products.NewRepository(base)
	inventoryStore := inventory.NewStore(base)
	clientDirectory := clients.NewDirectory(base)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	saleSvc, err := sale.NewService(
		sale.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
		inventoryStore,
		clientDirectory,
		saleMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale service", err)
		os.Exit(1)
	}

	sessionStore, err := checkout.NewRedisStore(redisClient, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	gateways := payment.DefaultGateways()
	if !cfg.FeatureFlags.AllowCrypto {
		delete(gateways, enums.PaymentMethodCrypto)
	}

	checkoutSvc, err := checkout.NewService(
		sessionStore,
		productCatalog,
		inventoryStore,
		clientDirectory,
		gateways,
		saleSvc,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	storeSvc, err := stores.NewService(stores.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
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
		Handler: routes.NewRouter(routes.Dependencies{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Checkout: checkoutSvc,
			Sales:    saleSvc,
			Stores:   storeSvc,
			Registry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
