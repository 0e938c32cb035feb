package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/fixlocal/fixlocal-backend/api/responses"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
	"github.com/fixlocal/fixlocal-backend/pkg/metrics"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type StripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string)
}

type StripeClient interface {
	SigningSecret() string
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// StripeWebhook receives signed Stripe events and feeds them through the
// reconciliation pipeline. The body must stay raw until the signature checks
// out. The idempotency marker is claimed before dispatch; a handler failure
// releases it so Stripe's redelivery gets another attempt.
func StripeWebhook(svc StripeWebhookService, client StripeClient, guard StripeWebhookGuard, maxBodyBytes int64, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook pipeline unavailable"))
			return
		}
		if client == nil || client.SigningSecret() == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe signing secret not configured"))
			return
		}

		if maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify stripe signature"))
			return
		}
		eventType := string(event.Type)

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			m.IncDuplicate(eventType)
			responses.WriteSuccess(w, receivedResponse{Received: true})
			return
		}

		start := time.Now()
		if err := svc.HandleEvent(ctx, &event); err != nil {
			guard.Release(ctx, event.ID)
			m.IncProcessed(eventType, "error")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handle stripe event"))
			return
		}
		m.ObserveDuration(eventType, time.Since(start))
		m.IncProcessed(eventType, "ok")

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s processed", event.ID))
		}
		responses.WriteSuccess(w, receivedResponse{Received: true})
	}
}
