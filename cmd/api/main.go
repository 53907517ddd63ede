package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/kennahq/kenna-pos-backend/api/routes"
	cartsvc "github.com/kennahq/kenna-pos-backend/internal/cart"
	catalogsvc "github.com/kennahq/kenna-pos-backend/internal/catalog"
	checkoutsvc "github.com/kennahq/kenna-pos-backend/internal/checkout"
	"github.com/kennahq/kenna-pos-backend/internal/orders"
	"github.com/kennahq/kenna-pos-backend/internal/payments"
	"github.com/kennahq/kenna-pos-backend/pkg/config"
	"github.com/kennahq/kenna-pos-backend/pkg/db"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/metrics"
	"github.com/kennahq/kenna-pos-backend/pkg/migrate"
	"github.com/kennahq/kenna-pos-backend/pkg/mpesa"
	"github.com/kennahq/kenna-pos-backend/pkg/redis"
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

	catalogRepo := catalogsvc.NewRepository(dbClient.DB())
	catalogService, err := catalogsvc.NewService(catalogRepo, cfg.POS.LowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartStore, err := cartsvc.NewRedisStore(redisClient, cfg.POS.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartStore, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	locker, err := checkoutsvc.NewRedisLocker(redisClient, cfg.POS.CheckoutLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout locker", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentsRepo := payments.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Carts:    cartStore,
		Catalog:  catalogRepo,
		Payments: paymentsRepo,
		Orders:   ordersRepo,
		Gateway:  mpesa.NewSimulator(cfg.Gateway, logg),
		Locker:   locker,
		Tx:       dbClient,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
	}, cfg.Gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
			cfg, logg, dbClient, redisClient,
			catalogService, cartService, checkoutService,
			paymentsRepo, ordersRepo, registry,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		// Last chance to land any sales still waiting on persistence.
		if len(checkoutService.Unsynced()) > 0 {
			err = multierr.Append(err, checkoutService.RetryUnsynced(shutdownCtx))
		}
		return err
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
