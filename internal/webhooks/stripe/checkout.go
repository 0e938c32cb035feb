package stripewebhook

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/fixlocal/fixlocal-backend/internal/users"
	"github.com/fixlocal/fixlocal-backend/pkg/db/models"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
)

// handleCheckoutCompleted bootstraps subscription state the moment checkout
// finishes. It sends no upgrade email itself: an applied upgrade is recorded
// as deferred, and the subscription event that Stripe emits for the same
// purchase delivers exactly one email.
func (s *Service) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	userID, ok := s.userIDFromMetadata(ctx, session.Metadata)
	if !ok {
		return nil
	}
	ctx = s.logg.WithUserID(ctx, userID.String())

	switch session.Mode {
	case stripe.CheckoutSessionModeSubscription:
		// continue below
	case stripe.CheckoutSessionModePayment:
		// Job payments settle through payment_intent.succeeded.
		s.logg.Info(ctx, "payment-mode checkout acknowledged, settlement handled elsewhere")
		return nil
	default:
		s.logg.Warn(s.logg.WithField(ctx, "mode", string(session.Mode)), "unhandled checkout session mode")
		return nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			s.logg.Error(ctx, "checkout completed for unknown user", err)
			return nil
		}
		return err
	}

	status := enums.SubscriptionStatusActive
	patch := users.SubscriptionPatch{Status: &status}
	if session.Customer != nil && session.Customer.ID != "" {
		patch.StripeCustomerID = &session.Customer.ID
	}

	subscriptionID := checkoutSubscriptionID(session)
	if subscriptionID != "" {
		patch.StripeSubscriptionID = &subscriptionID
		// Best effort: a failed lookup leaves the period fields null and
		// cancellation false until the subscription event reconciles them.
		if full, fetchErr := s.api.GetSubscription(ctx, subscriptionID); fetchErr == nil {
			if end := periodEnd(full); end != 0 {
				t := time.Unix(end, 0).UTC()
				patch.CurrentPeriodEnd = &t
			}
			cancelAtPeriodEnd := full.CancelAtPeriodEnd
			patch.CancelAtPeriodEnd = &cancelAtPeriodEnd
			if full.CancelAt != 0 {
				t := time.Unix(full.CancelAt, 0).UTC()
				patch.CancelAt = &t
			}
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "error", fetchErr.Error()), "subscription lookup after checkout failed")
		}
	}

	tier, resolved := s.tiers.TierFromCheckoutSession(ctx, session)
	if resolved {
		role := enums.RoleForTier(tier, user.Role)
		patch.Tier = &tier
		patch.Role = &role
	} else {
		s.logg.Warn(ctx, "checkout tier unresolved, leaving stored tier untouched")
	}

	previousTier := user.SubscriptionTier

	var updated *models.User
	_ = s.executor.Execute(ctx, "checkout subscription bootstrap", func(ctx context.Context) error {
		var execErr error
		updated, execErr = s.users.ApplySubscriptionPatch(ctx, userID, patch)
		return execErr
	})
	if updated == nil {
		return nil
	}

	if resolved && tier != previousTier && tier != enums.SubscriptionTierBasic {
		s.deferUpgradeEmail(ctx, userID)
	}
	return nil
}

func checkoutSubscriptionID(session *stripe.CheckoutSession) string {
	if session.Subscription == nil {
		return ""
	}
	return session.Subscription.ID
}
