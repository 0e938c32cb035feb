package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixlocal/fixlocal-backend/pkg/enums"
)

// User represents the canonical identity entity for both sides of the
// marketplace. Tradespeople additionally carry Stripe subscription and
// Connect onboarding state.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email     string         `gorm:"type:text;not null;uniqueIndex"`
	FirstName string         `gorm:"column:first_name;not null"`
	LastName  string         `gorm:"column:last_name;not null"`
	Phone     *string        `gorm:"column:phone"`
	Role      enums.UserRole `gorm:"column:role;not null;default:'customer'"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`

	SubscriptionTier   enums.SubscriptionTier    `gorm:"column:subscription_tier;not null;default:'basic'"`
	SubscriptionStatus *enums.SubscriptionStatus `gorm:"column:subscription_status"`

	StripeCustomerID         *string    `gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID     *string    `gorm:"column:stripe_subscription_id;index"`
	StripeAccountID          *string    `gorm:"column:stripe_account_id;index"`
	StripeOnboardingComplete bool       `gorm:"column:stripe_onboarding_complete;not null;default:false"`
	StripeCurrentPeriodEnd   *time.Time `gorm:"column:stripe_current_period_end"`
	StripeCancelAtPeriodEnd  bool       `gorm:"column:stripe_cancel_at_period_end;not null;default:false"`
	StripeCancelAt           *time.Time `gorm:"column:stripe_cancel_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
