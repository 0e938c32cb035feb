package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixlocal/fixlocal-backend/pkg/enums"
)

// Quote is a tradesperson's priced offer for a job. Its payment fields mirror
// the job ledger so a tradesperson's quote list shows settlement state without
// joining payments.
type Quote struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID          uuid.UUID `gorm:"column:job_id;type:uuid;not null;index"`
	TradespersonID uuid.UUID `gorm:"column:tradesperson_id;type:uuid;not null;index"`
	Amount         int64     `gorm:"column:amount;not null"`
	Currency       string    `gorm:"column:currency;not null;default:'gbp'"`

	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
