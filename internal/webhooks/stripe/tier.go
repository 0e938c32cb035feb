package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	"github.com/fixlocal/fixlocal-backend/pkg/enums"
)

const tierMetadataKey = "tier"

// TierResolver maps Stripe billing objects to a subscription tier through a
// prioritized fallback chain. An unresolved tier means "leave the stored
// tier alone", never "downgrade to basic".
type TierResolver struct {
	tierByPriceID map[string]enums.SubscriptionTier
	api           EventAPI
}

func NewTierResolver(tierByPriceID map[string]enums.SubscriptionTier, api EventAPI) *TierResolver {
	return &TierResolver{tierByPriceID: tierByPriceID, api: api}
}

// TierFromSubscription resolves in order: subscription metadata, the first
// item's price metadata, then the configured price-ID table. The table is
// built from paid-plan price IDs only, so this last fallback can never
// resolve "basic".
func (r *TierResolver) TierFromSubscription(sub *stripe.Subscription) (enums.SubscriptionTier, bool) {
	if sub == nil {
		return "", false
	}
	if tier, ok := parseTier(sub.Metadata[tierMetadataKey]); ok {
		return tier, true
	}

	price := firstItemPrice(sub)
	if price == nil {
		return "", false
	}
	if tier, ok := parseTier(price.Metadata[tierMetadataKey]); ok {
		return tier, true
	}
	if tier, ok := r.tierByPriceID[price.ID]; ok {
		return tier, true
	}
	return "", false
}

// TierFromCheckoutSession resolves from session metadata first. When that is
// absent the session is re-fetched with line items expanded, since webhook
// payloads do not carry them, and the line-item price metadata is consulted.
func (r *TierResolver) TierFromCheckoutSession(ctx context.Context, session *stripe.CheckoutSession) (enums.SubscriptionTier, bool) {
	if session == nil {
		return "", false
	}
	if tier, ok := parseTier(session.Metadata[tierMetadataKey]); ok {
		return tier, true
	}

	enriched := session
	if sessionLineItemPrice(enriched) == nil && r.api != nil {
		fetched, err := r.api.GetCheckoutSessionWithLineItems(ctx, session.ID)
		if err != nil {
			return "", false
		}
		enriched = fetched
	}

	price := sessionLineItemPrice(enriched)
	if price == nil {
		return "", false
	}
	return parseTier(price.Metadata[tierMetadataKey])
}

func parseTier(raw string) (enums.SubscriptionTier, bool) {
	tier := enums.SubscriptionTier(raw)
	if !tier.IsValid() {
		return "", false
	}
	return tier, true
}

func firstItemPrice(sub *stripe.Subscription) *stripe.Price {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0].Price
}

func sessionLineItemPrice(session *stripe.CheckoutSession) *stripe.Price {
	if session.LineItems == nil || len(session.LineItems.Data) == 0 {
		return nil
	}
	return session.LineItems.Data[0].Price
}
