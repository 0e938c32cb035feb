package stripewebhook

import (
	"context"
	"errors"
	"time"

	"github.com/fixlocal/fixlocal-backend/pkg/logger"
	"github.com/fixlocal/fixlocal-backend/pkg/redis"
)

const idempotencyScope = "stripe"

var errStoreRequired = errors.New("idempotency store is required")

// IdempotencyGuard tracks which event IDs have already been handled. The
// marker is claimed before the handler runs, so a redelivered event never
// re-applies a payment side effect. The trade-off is that a handler crash
// after the claim drops the event instead of retrying it.
//
// The guard fails closed: when the store cannot be reached, events are
// treated as already processed. Dropping a webhook is recoverable through
// Stripe's dashboard; double-applying a payment is not.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errStoreRequired
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &IdempotencyGuard{store: store, ttl: ttl, logg: logg}, nil
}

// CheckAndMark reports whether eventID was already processed, claiming the
// marker atomically when it was not. Empty IDs and store failures both read
// as processed.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		g.warn(ctx, eventID, "event without id treated as processed")
		return true, nil
	}

	key := g.store.IdempotencyKey(idempotencyScope, eventID)
	claimed, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		g.warn(ctx, eventID, "idempotency store unavailable, treating event as processed")
		return true, nil
	}
	return !claimed, nil
}

// Release drops the marker so Stripe's redelivery can retry the event. Used
// when a handler fails after the claim; failure to release is logged only.
func (g *IdempotencyGuard) Release(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	key := g.store.IdempotencyKey(idempotencyScope, eventID)
	if err := g.store.Del(ctx, key); err != nil {
		g.warn(ctx, eventID, "failed to release idempotency marker")
	}
}

func (g *IdempotencyGuard) warn(ctx context.Context, eventID, msg string) {
	if g.logg == nil {
		return
	}
	g.logg.Warn(g.logg.WithEventID(ctx, eventID), msg)
}
