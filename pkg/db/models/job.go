package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixlocal/fixlocal-backend/pkg/enums"
)

// Job is a piece of work a customer hired a tradesperson for. Money flows
// through it in two steps, a deposit and a final payment, each recorded as a
// JobPayment row.
type Job struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID     uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	TradespersonID uuid.UUID `gorm:"column:tradesperson_id;type:uuid;not null;index"`
	Title          string    `gorm:"column:title;not null"`

	PaymentStatus          enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	DepositPaymentIntentID *string             `gorm:"column:deposit_payment_intent_id"`
	FinalPaymentIntentID   *string             `gorm:"column:final_payment_intent_id"`

	Payments []JobPayment `gorm:"foreignKey:JobID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// JobPayment records one settled payment intent against a job. The composite
// unique index keeps replayed webhook deliveries from inserting duplicates.
type JobPayment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	JobID           uuid.UUID         `gorm:"column:job_id;type:uuid;not null;uniqueIndex:idx_job_payment_intent,priority:1"`
	Type            enums.PaymentType `gorm:"column:type;not null;uniqueIndex:idx_job_payment_intent,priority:2"`
	PaymentIntentID string            `gorm:"column:payment_intent_id;not null;uniqueIndex:idx_job_payment_intent,priority:3"`
	Amount          int64             `gorm:"column:amount;not null"`
	Currency        string            `gorm:"column:currency;not null;default:'gbp'"`
	PaidAt          time.Time         `gorm:"column:paid_at;not null"`
	ReceiptURL      *string           `gorm:"column:receipt_url"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
