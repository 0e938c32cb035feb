package enums

import "fmt"

// PaymentStatus tracks how much of a job's money has settled.
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "unpaid"
	PaymentStatusDepositPaid PaymentStatus = "deposit_paid"
	PaymentStatusFullyPaid   PaymentStatus = "fully_paid"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusDepositPaid,
	PaymentStatusFullyPaid,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// ForPaymentType returns the job payment status implied by a settled payment
// of the given type.
func ForPaymentType(pt PaymentType) PaymentStatus {
	if pt == PaymentTypeFinal {
		return PaymentStatusFullyPaid
	}
	return PaymentStatusDepositPaid
}
