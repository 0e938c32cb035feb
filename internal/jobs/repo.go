package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixlocal/fixlocal-backend/pkg/db/models"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
)

// Repository handles job and quote persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	FindQuoteByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	MarkQuotePaid(ctx context.Context, quoteID uuid.UUID, paymentIntentID string, status enums.PaymentStatus, paidAt time.Time) error
	ApplyJobPayment(ctx context.Context, jobID uuid.UUID, entry PaymentEntry) (*models.Job, error)
}

// PaymentEntry is one settled payment intent to fold into a job's ledger.
type PaymentEntry struct {
	Type            enums.PaymentType
	PaymentIntentID string
	Amount          int64
	Currency        string
	PaidAt          time.Time
	ReceiptURL      *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a jobs repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).
		Preload("Payments").
		First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading job")
	}
	return &job, nil
}

func (r *repository) FindQuoteByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.WithContext(ctx).First(&quote, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading quote")
	}
	return &quote, nil
}

// MarkQuotePaid overwrites the quote's payment mirror. The mirror is a plain
// overwrite on purpose: a quote carries exactly one active payment state.
func (r *repository) MarkQuotePaid(ctx context.Context, quoteID uuid.UUID, paymentIntentID string, status enums.PaymentStatus, paidAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Updates(map[string]any{
			"payment_status":    status,
			"payment_intent_id": paymentIntentID,
			"paid_at":           paidAt,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating quote payment mirror")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return nil
}

// ApplyJobPayment folds a settled payment into the job's ledger with a
// read-modify-write. A row already holding the same (type, payment intent)
// pair is updated in place, keeping a previously known receipt URL when the
// redelivered event lacks one. The job's payment status and type-specific
// intent column are derived from the entry.
func (r *repository) ApplyJobPayment(ctx context.Context, jobID uuid.UUID, entry PaymentEntry) (*models.Job, error) {
	job, err := r.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var existing *models.JobPayment
	for i := range job.Payments {
		p := &job.Payments[i]
		if p.PaymentIntentID == entry.PaymentIntentID && p.Type == entry.Type {
			existing = p
			break
		}
	}

	if existing != nil {
		cols := map[string]any{
			"amount":  entry.Amount,
			"paid_at": entry.PaidAt,
		}
		if entry.ReceiptURL != nil {
			cols["receipt_url"] = *entry.ReceiptURL
		}
		if err := r.db.WithContext(ctx).
			Model(&models.JobPayment{}).
			Where("id = ?", existing.ID).
			Updates(cols).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merging job payment")
		}
	} else {
		currency := entry.Currency
		if currency == "" {
			currency = "gbp"
		}
		payment := models.JobPayment{
			ID:              uuid.New(),
			JobID:           job.ID,
			Type:            entry.Type,
			PaymentIntentID: entry.PaymentIntentID,
			Amount:          entry.Amount,
			Currency:        currency,
			PaidAt:          entry.PaidAt,
			ReceiptURL:      entry.ReceiptURL,
		}
		if err := r.db.WithContext(ctx).Create(&payment).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending job payment")
		}
	}

	jobCols := map[string]any{
		"payment_status": enums.ForPaymentType(entry.Type),
	}
	if entry.Type == enums.PaymentTypeFinal {
		jobCols["final_payment_intent_id"] = entry.PaymentIntentID
	} else {
		jobCols["deposit_payment_intent_id"] = entry.PaymentIntentID
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", job.ID).
		Updates(jobCols).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating job payment status")
	}

	return r.FindJobByID(ctx, job.ID)
}
