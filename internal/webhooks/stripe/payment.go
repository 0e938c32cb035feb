package stripewebhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/fixlocal/fixlocal-backend/internal/jobs"
	"github.com/fixlocal/fixlocal-backend/internal/notifications"
	"github.com/fixlocal/fixlocal-backend/pkg/db/models"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
)

// handlePaymentIntentSucceeded settles a one-off job payment: the quote's
// payment mirror is overwritten, the job's payment ledger is merged on
// (payment intent, type) so a redelivery never duplicates a record, and both
// parties are emailed.
func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	jobID, quoteID, paymentType, ok := s.settlementMetadata(ctx, intent)
	if !ok {
		return nil
	}
	ctx = s.logg.WithJobID(ctx, jobID.String())

	receiptURL := s.resolveReceiptURL(ctx, intent)
	paidAt := time.Unix(intent.Created, 0).UTC()

	_ = s.executor.Execute(ctx, "quote payment mirror", func(ctx context.Context) error {
		return s.jobs.MarkQuotePaid(ctx, quoteID, intent.ID, enums.ForPaymentType(paymentType), paidAt)
	})

	var job *models.Job
	_ = s.executor.Execute(ctx, "job payment ledger", func(ctx context.Context) error {
		var execErr error
		job, execErr = s.jobs.ApplyJobPayment(ctx, jobID, jobs.PaymentEntry{
			Type:            paymentType,
			PaymentIntentID: intent.ID,
			Amount:          intent.Amount,
			Currency:        string(intent.Currency),
			PaidAt:          paidAt,
			ReceiptURL:      receiptURL,
		})
		return execErr
	})
	if job == nil {
		return nil
	}

	s.sendSettlementEmails(ctx, job, paymentType, intent.Amount, string(intent.Currency))
	return nil
}

// settlementMetadata validates the three required metadata fields. A missing
// or malformed field drops the event with a warning; Stripe redelivering the
// same malformed payload would fail the same way forever.
func (s *Service) settlementMetadata(ctx context.Context, intent *stripe.PaymentIntent) (jobID, quoteID uuid.UUID, paymentType enums.PaymentType, ok bool) {
	rawJob := intent.Metadata["jobId"]
	rawQuote := intent.Metadata["quoteId"]
	rawType := intent.Metadata["paymentType"]
	if rawJob == "" || rawQuote == "" || rawType == "" {
		s.logg.Warn(ctx, "payment intent missing settlement metadata, dropping event")
		return uuid.Nil, uuid.Nil, "", false
	}

	jobID, jobErr := uuid.Parse(rawJob)
	quoteID, quoteErr := uuid.Parse(rawQuote)
	if jobErr != nil || quoteErr != nil {
		s.logg.Warn(ctx, "payment intent metadata ids are not uuids, dropping event")
		return uuid.Nil, uuid.Nil, "", false
	}

	paymentType = enums.PaymentType(rawType)
	if paymentType != enums.PaymentTypeDeposit && paymentType != enums.PaymentTypeFinal {
		s.logg.Warn(s.logg.WithField(ctx, "payment_type", rawType), "unknown payment type, dropping event")
		return uuid.Nil, uuid.Nil, "", false
	}
	return jobID, quoteID, paymentType, true
}

// resolveReceiptURL pulls the receipt off the latest charge, fetching the
// charge when the payload only carries a reference. No receipt is tolerated.
func (s *Service) resolveReceiptURL(ctx context.Context, intent *stripe.PaymentIntent) *string {
	charge := intent.LatestCharge
	if charge == nil {
		s.logg.Warn(ctx, "payment intent has no latest charge, settling without receipt url")
		return nil
	}
	if charge.ReceiptURL == "" && charge.ID != "" {
		fetched, err := s.api.GetCharge(ctx, charge.ID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "charge lookup failed, settling without receipt url")
			return nil
		}
		charge = fetched
	}
	if charge.ReceiptURL == "" {
		s.logg.Warn(ctx, "charge carries no receipt url")
		return nil
	}
	url := charge.ReceiptURL
	return &url
}

func (s *Service) sendSettlementEmails(ctx context.Context, job *models.Job, paymentType enums.PaymentType, amount int64, currency string) {
	customer, err := s.users.FindByID(ctx, job.CustomerID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "customer lookup failed, skipping settlement emails")
		return
	}
	tradesperson, err := s.users.FindByID(ctx, job.TradespersonID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "tradesperson lookup failed, skipping settlement emails")
		return
	}

	params := notifications.PaymentEmailParams{
		CustomerEmail:     customer.Email,
		TradespersonEmail: tradesperson.Email,
		JobTitle:          job.Title,
		AmountPence:       amount,
		Currency:          currency,
	}

	if paymentType == enums.PaymentTypeDeposit {
		if err := s.mailer.SendDepositPaidEmail(ctx, params); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "deposit email failed")
		}
		return
	}

	if err := s.mailer.SendJobCompleteEmail(ctx, customer.Email, customer.FirstName, job.Title); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "job complete email failed")
	}
	if err := s.mailer.SendFinalPaymentPaidEmail(ctx, params); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "final payment email failed")
	}
}
