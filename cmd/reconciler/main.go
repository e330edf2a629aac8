package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mvcampos/oticaflow-backend/internal/inventory"
	"github.com/mvcampos/oticaflow-backend/internal/repo"
	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/pkg/config"
	"github.com/mvcampos/oticaflow-backend/pkg/db"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/metrics"
	"github.com/mvcampos/oticaflow-backend/pkg/migrate"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
	"github.com/mvcampos/oticaflow-backend/pkg/redis"
)

const leaseName = "sale-reconciler"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconciler"

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
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

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	reconciler, err := sale.NewReconciler(sale.ReconcilerParams{
		Repo:       sale.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Inventory:  inventory.NewStore(repo.NewBase(dbClient.DB())),
		Metrics:    saleMetrics,
		Logger:     logg,
		StaleAfter: cfg.Reconciler.StaleAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	lease, err := redis.NewLease(redisClient, leaseName, cfg.Reconciler.LeaseDuration)
	if err != nil {
		logg.Error(context.Background(), "failed to create lease", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "reconciler",
	})
	logg.Info(ctx, "starting sale reconciler")

	if err := run(ctx, logg, reconciler, lease, cfg.Reconciler.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler shutting down gracefully")
}

// run fires the reconciler on every tick, skipping the pass when another
// instance holds the lease.
func run(ctx context.Context, logg *logger.Logger, reconciler *sale.Reconciler, lease *redis.Lease, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		acquired, err := lease.Acquire(ctx)
		if err != nil {
			logg.Error(ctx, "lease acquisition failed", err)
			continue
		}
		if !acquired {
			continue
		}

		resolved, err := reconciler.RunOnce(ctx)
		if err != nil {
			logg.Error(ctx, "reconciliation pass failed", err)
		} else if resolved > 0 {
			logg.Info(logg.WithField(ctx, "resolved", resolved), "reconciled stale sale intents")
		}

		if err := lease.Release(ctx); err != nil {
			logg.Error(ctx, "lease release failed", err)
		}
	}
}
