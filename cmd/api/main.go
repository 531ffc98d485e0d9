package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmstandhq/farmstand-backend/api/routes"
	"github.com/farmstandhq/farmstand-backend/internal/cart"
	"github.com/farmstandhq/farmstand-backend/internal/farmers"
	"github.com/farmstandhq/farmstand-backend/internal/favorites"
	"github.com/farmstandhq/farmstand-backend/internal/messaging"
	"github.com/farmstandhq/farmstand-backend/internal/orders"
	"github.com/farmstandhq/farmstand-backend/internal/orderstatus"
	"github.com/farmstandhq/farmstand-backend/internal/products"
	"github.com/farmstandhq/farmstand-backend/internal/reviews"
	"github.com/farmstandhq/farmstand-backend/internal/users"
	"github.com/farmstandhq/farmstand-backend/pkg/config"
	"github.com/farmstandhq/farmstand-backend/pkg/db"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
	"github.com/farmstandhq/farmstand-backend/pkg/metrics"
	"github.com/farmstandhq/farmstand-backend/pkg/migrate"
	"github.com/farmstandhq/farmstand-backend/pkg/redis"
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

	overrideStore, err := orderstatus.NewRedisStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create override store", err)
		os.Exit(1)
	}
	overlay, err := orderstatus.NewOverlay(context.Background(), overrideStore, logg,
		orderstatus.WithTTL(cfg.Orders.OverrideTTL),
		orderstatus.WithPersistDebounce(cfg.Orders.OverridePersistDebounce),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to seed status overlay", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	farmersRepo := farmers.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())
	favoritesRepo := favorites.NewRepository(dbClient.DB())
	messagingRepo := messaging.NewRepository(dbClient.DB())

	userService, err := users.NewService(usersRepo, farmersRepo, cfg.JWT, cfg.Password)
	exitOnError(logg, "user service", err)
	farmerService, err := farmers.NewService(farmersRepo)
	exitOnError(logg, "farmer service", err)
	productService, err := products.NewService(productsRepo, farmersRepo)
	exitOnError(logg, "product service", err)
	cartService, err := cart.NewService(dbClient, cartRepo, productsRepo, logg)
	exitOnError(logg, "cart service", err)
	orderService, err := orders.NewService(dbClient, ordersRepo, productsRepo, cartRepo, overlay, logg)
	exitOnError(logg, "order service", err)
	reviewService, err := reviews.NewService(reviewsRepo, productsRepo, farmersRepo, logg)
	exitOnError(logg, "review service", err)
	favoriteService, err := favorites.NewService(favoritesRepo, productsRepo)
	exitOnError(logg, "favorite service", err)
	messagingService, err := messaging.NewService(messagingRepo, usersRepo)
	exitOnError(logg, "messaging service", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(
		cfg, logg, dbClient, redisClient,
		httpMetrics, promhttp.Handler(),
		userService, farmerService, productService, cartService,
		orderService, reviewService, favoriteService, messagingService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{Addr: addr, Handler: handler}

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
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
		if err := overlay.Flush(shutdownCtx); err != nil {
			logg.Error(ctx, "error flushing status overlay", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
