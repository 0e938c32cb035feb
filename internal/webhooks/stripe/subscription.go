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

// reconcileSubscription brings the stored user subscription state in line
// with Stripe's authoritative copy. Status, IDs, and period/cancellation
// fields are always written; tier and role move only when the tier resolves,
// so a gap in metadata never downgrades anyone.
func (s *Service) reconcileSubscription(ctx context.Context, subscriptionID string) error {
	full, err := s.api.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching subscription from stripe")
	}

	userID, ok := s.userIDFromMetadata(ctx, full.Metadata)
	if !ok {
		return nil
	}
	ctx = s.logg.WithUserID(ctx, userID.String())

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			s.logg.Error(ctx, "subscription event for unknown user", err)
			return nil
		}
		return err
	}

	patch := subscriptionPatch(full)
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" && patch.StripeCustomerID == nil {
		// Provider omitted the customer reference; keep ours.
		patch.StripeCustomerID = user.StripeCustomerID
	}

	tier, resolved := s.tiers.TierFromSubscription(full)
	if resolved {
		role := enums.RoleForTier(tier, user.Role)
		patch.Tier = &tier
		patch.Role = &role
	} else {
		s.logg.Warn(ctx, "subscription tier unresolved, leaving stored tier untouched")
	}

	previousTier := user.SubscriptionTier

	var updated *models.User
	_ = s.executor.Execute(ctx, "user subscription reconciliation", func(ctx context.Context) error {
		var execErr error
		updated, execErr = s.users.ApplySubscriptionPatch(ctx, userID, patch)
		return execErr
	})
	if updated == nil {
		return nil
	}

	if resolved {
		// A checkout that already persisted this tier leaves previousTier
		// equal to it; the deferred marker carries the email across.
		deferred := s.upgradeEmailDeferred(ctx, userID)
		if tier != enums.SubscriptionTierBasic && (tier != previousTier || deferred) {
			if err := s.mailer.SendSubscriptionUpgradedEmail(ctx, updated.Email, updated.FirstName, tier); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "upgrade email failed")
			}
		}
	}
	return nil
}

// subscriptionPatch maps the always-updated fields of a full subscription.
func subscriptionPatch(full *stripe.Subscription) users.SubscriptionPatch {
	status := enums.SubscriptionStatus(full.Status)
	patch := users.SubscriptionPatch{
		Status:               &status,
		StripeSubscriptionID: &full.ID,
	}
	if full.Customer != nil && full.Customer.ID != "" {
		patch.StripeCustomerID = &full.Customer.ID
	}

	cancelAtPeriodEnd := full.CancelAtPeriodEnd
	patch.CancelAtPeriodEnd = &cancelAtPeriodEnd

	if end := periodEnd(full); end != 0 {
		t := time.Unix(end, 0).UTC()
		patch.CurrentPeriodEnd = &t
	} else {
		patch.ClearCurrentPeriodEnd = true
	}
	if full.CancelAt != 0 {
		t := time.Unix(full.CancelAt, 0).UTC()
		patch.CancelAt = &t
	} else {
		patch.ClearCancelAt = true
	}
	return patch
}

// periodEnd reads the renewal boundary off the first subscription item,
// where current Stripe API versions carry it.
func periodEnd(sub *stripe.Subscription) int64 {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return 0
	}
	return sub.Items.Data[0].CurrentPeriodEnd
}
