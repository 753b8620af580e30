package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shoptab-backend/api/routes"
	"github.com/angelmondragon/shoptab-backend/internal/cart"
	"github.com/angelmondragon/shoptab-backend/internal/catalog"
	"github.com/angelmondragon/shoptab-backend/internal/credit"
	"github.com/angelmondragon/shoptab-backend/internal/notifications"
	"github.com/angelmondragon/shoptab-backend/internal/orders"
	"github.com/angelmondragon/shoptab-backend/pkg/auth"
	"github.com/angelmondragon/shoptab-backend/pkg/auth/session"
	"github.com/angelmondragon/shoptab-backend/pkg/config"
	"github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/instance"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
	"github.com/angelmondragon/shoptab-backend/pkg/metrics"
	"github.com/angelmondragon/shoptab-backend/pkg/migrate"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
	"github.com/angelmondragon/shoptab-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	logg = logger.New(logger.ForApp("api", cfg.App))

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessions, err := session.NewChecker(redisClient)
	if err != nil {
		return err
	}
	tokens, err := auth.NewSigner(cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	retry := db.RetryOptions{MaxRetries: cfg.Tx.MaxRetries, InitialBackoff: cfg.Tx.InitialBackoff}
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	reader := catalog.NewReader(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())

	cartSvc, err := cart.NewService(cartRepo, dbClient, reader, logg)
	if err != nil {
		return err
	}
	creditSvc, err := credit.NewService(credit.ServiceParams{
		Repo:    credit.NewRepository(dbClient.DB()),
		DB:      dbClient,
		Outbox:  outboxSvc,
		Logger:  logg,
		Metrics: commerceMetrics,
		Retry:   retry,
	})
	if err != nil {
		return err
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(dbClient.DB()),
		Carts:   cartRepo,
		Catalog: reader,
		Credit:  creditSvc,
		DB:      dbClient,
		Outbox:  outboxSvc,
		Logger:  logg,
		Metrics: commerceMetrics,
		Retry:   retry,
	})
	if err != nil {
		return err
	}
	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Tokens:        tokens,
			Sessions:      sessions,
			Carts:         cartSvc,
			Orders:        ordersSvc,
			Credit:        creditSvc,
			Notifications: notificationsSvc,
			Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
