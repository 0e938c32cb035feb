package stripewebhook

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	upgradeEmailScope = "upgrade-email"
	upgradeEmailTTL   = 24 * time.Hour
)

// The checkout handler persists a resolved tier before the subscription event
// for the same purchase arrives, which would make the subscription handler's
// before/after comparison read the upgrade as a no-change and skip the email.
// A short-lived marker hands the pending email across the two events: checkout
// sets it when it applies an upgrade, the subscription handler consumes it.

func (s *Service) deferUpgradeEmail(ctx context.Context, userID uuid.UUID) {
	key := s.store.IdempotencyKey(upgradeEmailScope, userID.String())
	if _, err := s.store.SetNX(ctx, key, 1, upgradeEmailTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "could not record deferred upgrade email")
	}
}

// upgradeEmailDeferred reports whether a checkout left an upgrade email
// pending for this user, clearing the marker so a redelivered subscription
// event cannot send a second one.
func (s *Service) upgradeEmailDeferred(ctx context.Context, userID uuid.UUID) bool {
	key := s.store.IdempotencyKey(upgradeEmailScope, userID.String())
	value, err := s.store.Get(ctx, key)
	if err != nil || value == "" {
		return false
	}
	if err := s.store.Del(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "could not clear deferred upgrade email")
	}
	return true
}
