package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixlocal/fixlocal-backend/pkg/db/models"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
)

// Repository handles user-profile persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByStripeAccountID(ctx context.Context, accountID string) (*models.User, error)
	ApplySubscriptionPatch(ctx context.Context, id uuid.UUID, patch SubscriptionPatch) (*models.User, error)
	MarkStripeOnboarded(ctx context.Context, id uuid.UUID) error
}

// SubscriptionPatch carries the subscription fields a webhook handler decided
// to change. Nil pointer fields are left untouched, so an unresolved tier can
// never clobber a stored one. The Clear flags null out the paired column.
type SubscriptionPatch struct {
	Status               *enums.SubscriptionStatus
	Tier                 *enums.SubscriptionTier
	Role                 *enums.UserRole
	StripeCustomerID     *string
	StripeSubscriptionID *string

	CurrentPeriodEnd      *time.Time
	ClearCurrentPeriodEnd bool
	CancelAtPeriodEnd     *bool
	CancelAt              *time.Time
	ClearCancelAt         bool
}

func (p SubscriptionPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Status != nil {
		cols["subscription_status"] = *p.Status
	}
	if p.Tier != nil {
		cols["subscription_tier"] = *p.Tier
	}
	if p.Role != nil {
		cols["role"] = *p.Role
	}
	if p.StripeCustomerID != nil {
		cols["stripe_customer_id"] = *p.StripeCustomerID
	}
	if p.StripeSubscriptionID != nil {
		cols["stripe_subscription_id"] = *p.StripeSubscriptionID
	}
	if p.CurrentPeriodEnd != nil {
		cols["stripe_current_period_end"] = *p.CurrentPeriodEnd
	} else if p.ClearCurrentPeriodEnd {
		cols["stripe_current_period_end"] = nil
	}
	if p.CancelAtPeriodEnd != nil {
		cols["stripe_cancel_at_period_end"] = *p.CancelAtPeriodEnd
	}
	if p.CancelAt != nil {
		cols["stripe_cancel_at"] = *p.CancelAt
	} else if p.ClearCancelAt {
		cols["stripe_cancel_at"] = nil
	}
	return cols
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return &user, nil
}

func (r *repository) FindByStripeAccountID(ctx context.Context, accountID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "stripe_account_id = ?", accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found for stripe account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user by stripe account")
	}
	return &user, nil
}

func (r *repository) ApplySubscriptionPatch(ctx context.Context, id uuid.UUID, patch SubscriptionPatch) (*models.User, error) {
	cols := patch.columns()
	if len(cols) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Updates(cols)
		if result.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating user subscription state")
		}
		if result.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
	}
	return r.FindByID(ctx, id)
}

func (r *repository) MarkStripeOnboarded(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("stripe_onboarding_complete", true)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "marking user onboarded")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}
