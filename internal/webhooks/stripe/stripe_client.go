package stripewebhook

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/fixlocal/fixlocal-backend/pkg/stripe"
)

// EventAPI is the read-only slice of the Stripe API the webhook pipeline
// needs. Payloads arrive partial, so handlers re-fetch the full object before
// acting on it.
type EventAPI interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	GetCheckoutSessionWithLineItems(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	GetCharge(ctx context.Context, id string) (*stripe.Charge, error)
}

type eventAPIWrapper struct {
	api *stripe.Client
}

// NewEventAPI wraps the shared Stripe client so handlers can be tested
// against a fake.
func NewEventAPI(client *pkgstripe.Client) (EventAPI, error) {
	if client == nil || client.API() == nil {
		return nil, errors.New("stripe client is required")
	}
	return &eventAPIWrapper{api: client.API()}, nil
}

func (w *eventAPIWrapper) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	return w.api.V1Subscriptions.Retrieve(ctx, id, nil)
}

func (w *eventAPIWrapper) GetCheckoutSessionWithLineItems(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionRetrieveParams{}
	params.AddExpand("line_items.data.price")
	return w.api.V1CheckoutSessions.Retrieve(ctx, id, params)
}

func (w *eventAPIWrapper) GetCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	return w.api.V1Charges.Retrieve(ctx, id, nil)
}
