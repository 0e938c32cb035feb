package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fixlocal/fixlocal-backend/api/controllers"
	webhookcontrollers "github.com/fixlocal/fixlocal-backend/api/controllers/webhooks"
	"github.com/fixlocal/fixlocal-backend/api/middleware"
	stripewebhook "github.com/fixlocal/fixlocal-backend/internal/webhooks/stripe"
	"github.com/fixlocal/fixlocal-backend/pkg/config"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
	"github.com/fixlocal/fixlocal-backend/pkg/metrics"
	"github.com/fixlocal/fixlocal-backend/pkg/stripe"
)

type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           controllers.Pinger
	StripeClient    *stripe.Client
	WebhookService  *stripewebhook.Service
	WebhookGuard    *stripewebhook.IdempotencyGuard
	WebhookMetrics  *metrics.WebhookMetrics
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(
			webhookService(p),
			webhookClient(p),
			webhookGuard(p),
			p.Config.Webhook.MaxBodyBytes,
			p.WebhookMetrics,
			p.Logger,
		))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// The controller takes interfaces; handing it a nil *T would slip past its
// nil checks, so unwired params become untyped nils here.

func webhookService(p RouterParams) webhookcontrollers.StripeWebhookService {
	if p.WebhookService == nil {
		return nil
	}
	return p.WebhookService
}

func webhookClient(p RouterParams) webhookcontrollers.StripeClient {
	if p.StripeClient == nil {
		return nil
	}
	return p.StripeClient
}

func webhookGuard(p RouterParams) webhookcontrollers.StripeWebhookGuard {
	if p.WebhookGuard == nil {
		return nil
	}
	return p.WebhookGuard
}
