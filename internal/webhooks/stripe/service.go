package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/fixlocal/fixlocal-backend/internal/jobs"
	"github.com/fixlocal/fixlocal-backend/internal/notifications"
	"github.com/fixlocal/fixlocal-backend/internal/users"
	"github.com/fixlocal/fixlocal-backend/pkg/db/models"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
	"github.com/fixlocal/fixlocal-backend/pkg/redis"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByStripeAccountID(ctx context.Context, accountID string) (*models.User, error)
	ApplySubscriptionPatch(ctx context.Context, id uuid.UUID, patch users.SubscriptionPatch) (*models.User, error)
	MarkStripeOnboarded(ctx context.Context, id uuid.UUID) error
}

type jobRepository interface {
	FindJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	MarkQuotePaid(ctx context.Context, quoteID uuid.UUID, paymentIntentID string, status enums.PaymentStatus, paidAt time.Time) error
	ApplyJobPayment(ctx context.Context, jobID uuid.UUID, entry jobs.PaymentEntry) (*models.Job, error)
}

type writeExecutor interface {
	Execute(ctx context.Context, description string, fn func(ctx context.Context) error) error
}

type ServiceParams struct {
	Users    userRepository
	Jobs     jobRepository
	API      EventAPI
	Tiers    *TierResolver
	Executor writeExecutor
	Mailer   notifications.Mailer
	Store    redis.IdempotencyStore
	Logger   *logger.Logger
}

// Service applies Stripe events to the marketplace's user, job, and quote
// state. Persistence runs through the write executor; email is best effort.
type Service struct {
	users    userRepository
	jobs     jobRepository
	api      EventAPI
	tiers    *TierResolver
	executor writeExecutor
	mailer   notifications.Mailer
	store    redis.IdempotencyStore
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
	}
	if params.Jobs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "jobs repo required")
	}
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe event api required")
	}
	if params.Tiers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tier resolver required")
	}
	if params.Executor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "write executor required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mailer required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency store required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		users:    params.Users,
		jobs:     params.Jobs,
		api:      params.API,
		tiers:    params.Tiers,
		executor: params.Executor,
		mailer:   params.Mailer,
		store:    params.Store,
		logg:     params.Logger,
	}, nil
}

// partialSubscription is the wire shape of a subscription event payload.
// Webhook payloads can be partial, so only the ID is trusted; the handler
// re-fetches the full subscription before reconciling.
type partialSubscription struct {
	ID string `json:"id"`
}

// HandleEvent dispatches one verified, not-yet-processed event. Unrecognized
// types are logged and ignored. A returned error tells the router to release
// the idempotency marker and answer 500 so Stripe redelivers.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithEventID(ctx, event.ID)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.logg.Warn(ctx, "undecodable checkout session payload, dropping event")
			return nil
		}
		return s.handleCheckoutCompleted(ctx, &session)

	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var partial partialSubscription
		if err := json.Unmarshal(event.Data.Raw, &partial); err != nil || partial.ID == "" {
			s.logg.Warn(ctx, "subscription event without id, dropping event")
			return nil
		}
		return s.reconcileSubscription(ctx, partial.ID)

	case stripe.EventTypeInvoicePaymentFailed:
		subscriptionID := event.GetObjectValue("subscription")
		if subscriptionID == "" {
			s.logg.Warn(ctx, "invoice event without subscription, dropping event")
			return nil
		}
		return s.reconcileSubscription(ctx, subscriptionID)

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			s.logg.Warn(ctx, "undecodable payment intent payload, dropping event")
			return nil
		}
		return s.handlePaymentIntentSucceeded(ctx, &intent)

	case stripe.EventTypeAccountUpdated:
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
			s.logg.Warn(ctx, "undecodable account payload, dropping event")
			return nil
		}
		return s.handleAccountUpdated(ctx, &account)

	default:
		s.logg.Info(s.logg.WithField(ctx, "event_type", string(event.Type)), "unhandled stripe event type")
		return nil
	}
}

func (s *Service) userIDFromMetadata(ctx context.Context, metadata map[string]string) (uuid.UUID, bool) {
	raw := metadata["userId"]
	if raw == "" {
		s.logg.Warn(ctx, "event metadata missing userId, dropping event")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", raw), "event metadata userId is not a uuid, dropping event")
		return uuid.Nil, false
	}
	return id, true
}
