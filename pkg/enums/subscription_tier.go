package enums

import "fmt"

// SubscriptionTier is a tradesperson's plan level.
type SubscriptionTier string

const (
	SubscriptionTierBasic    SubscriptionTier = "basic"
	SubscriptionTierPro      SubscriptionTier = "pro"
	SubscriptionTierBusiness SubscriptionTier = "business"
)

var validSubscriptionTiers = []SubscriptionTier{
	SubscriptionTierBasic,
	SubscriptionTierPro,
	SubscriptionTierBusiness,
}

// String implements fmt.Stringer.
func (s SubscriptionTier) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionTier) IsValid() bool {
	for _, candidate := range validSubscriptionTiers {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionTier converts raw input into a SubscriptionTier.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	for _, candidate := range validSubscriptionTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription tier %q", value)
}

// RoleForTier maps a paid tier onto the matching account role. Basic and
// unknown tiers keep whatever role the account already holds.
func RoleForTier(tier SubscriptionTier, current UserRole) UserRole {
	switch tier {
	case SubscriptionTierPro:
		return UserRoleProTradesperson
	case SubscriptionTierBusiness:
		return UserRoleBusinessTradesperson
	default:
		return current
	}
}
