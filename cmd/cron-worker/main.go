package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/internal/cron"
	"github.com/farmstandhq/farmstand-backend/internal/farmers"
	"github.com/farmstandhq/farmstand-backend/internal/messaging"
	"github.com/farmstandhq/farmstand-backend/internal/products"
	"github.com/farmstandhq/farmstand-backend/internal/reviews"
	"github.com/farmstandhq/farmstand-backend/pkg/config"
	"github.com/farmstandhq/farmstand-backend/pkg/db"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
	"github.com/farmstandhq/farmstand-backend/pkg/metrics"
	"github.com/farmstandhq/farmstand-backend/pkg/migrate"
	"github.com/farmstandhq/farmstand-backend/pkg/redis"
)

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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	messagingRepo := messaging.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	farmersRepo := farmers.NewRepository(dbClient.DB())

	messageCleanup, err := cron.NewMessageCleanupJob(cron.MessageCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: messagingRepo,
		Retention:  cfg.Cron.MessageRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create message cleanup job", err)
		os.Exit(1)
	}

	ratingRepair, err := cron.NewRatingRepairJob(cron.RatingRepairJobParams{
		Logger:       logg,
		DB:           dbClient,
		Reviews:      reviewsRepo,
		BindProducts: func(tx *gorm.DB) cron.RatingWriter { return productsRepo.WithTx(tx) },
		BindFarmers:  func(tx *gorm.DB) cron.RatingWriter { return farmersRepo.WithTx(tx) },
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rating repair job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(messageCleanup)
	registry.Register(ratingRepair)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
