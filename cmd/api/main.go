package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fixlocal/fixlocal-backend/api/routes"
	"github.com/fixlocal/fixlocal-backend/internal/jobs"
	"github.com/fixlocal/fixlocal-backend/internal/notifications"
	"github.com/fixlocal/fixlocal-backend/internal/users"
	stripewebhook "github.com/fixlocal/fixlocal-backend/internal/webhooks/stripe"
	"github.com/fixlocal/fixlocal-backend/pkg/alerts"
	"github.com/fixlocal/fixlocal-backend/pkg/config"
	"github.com/fixlocal/fixlocal-backend/pkg/db"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
	"github.com/fixlocal/fixlocal-backend/pkg/metrics"
	"github.com/fixlocal/fixlocal-backend/pkg/migrate"
	"github.com/fixlocal/fixlocal-backend/pkg/redis"
	"github.com/fixlocal/fixlocal-backend/pkg/retry"
	pkgstripe "github.com/fixlocal/fixlocal-backend/pkg/stripe"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	eventAPI, err := stripewebhook.NewEventAPI(stripeClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe event api", err)
		os.Exit(1)
	}

	executor := retry.NewExecutor(retry.Params{
		Alerter: alerts.New(cfg.Alerts, logg),
		Logger:  logg,
	})

	mailer, err := notifications.NewResendMailer(cfg.Resend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Users:    users.NewRepository(dbClient.DB()),
		Jobs:     jobs.NewRepository(dbClient.DB()),
		API:      eventAPI,
		Tiers:    stripewebhook.NewTierResolver(cfg.Stripe.TierByPriceID(), eventAPI),
		Executor: executor,
		Mailer:   mailer,
		Store:    redisClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			StripeClient:    stripeClient,
			WebhookService:  webhookService,
			WebhookGuard:    guard,
			WebhookMetrics:  webhookMetrics,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
