package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixlocal/fixlocal-backend/pkg/config"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
)

const defaultBaseURL = "https://api.resend.com"

var errLoggerRequired = errors.New("notifications logger is required")

// Mailer sends transactional email. Callers treat delivery as best effort
// and must not fail their own work when a send fails.
type Mailer interface {
	SendSubscriptionUpgradedEmail(ctx context.Context, to, firstName string, tier enums.SubscriptionTier) error
	SendDepositPaidEmail(ctx context.Context, p PaymentEmailParams) error
	SendFinalPaymentPaidEmail(ctx context.Context, p PaymentEmailParams) error
	SendJobCompleteEmail(ctx context.Context, to, firstName, jobTitle string) error
	SendStripeOnboardingSuccessEmail(ctx context.Context, to, firstName string) error
}

// PaymentEmailParams carries everything a payment notification needs. Both
// parties on the job get a copy.
type PaymentEmailParams struct {
	CustomerEmail     string
	TradespersonEmail string
	JobTitle          string
	AmountPence       int64
	Currency          string
}

// ResendMailer delivers email through the Resend REST API.
type ResendMailer struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewResendMailer builds a mailer from configuration. An empty API key yields
// a mailer that logs and drops every send, so local runs work without
// credentials.
func NewResendMailer(cfg config.ResendConfig, logg *logger.Logger) (*ResendMailer, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &ResendMailer{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		from:       strings.TrimSpace(cfg.DefaultFrom),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logg,
	}, nil
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) SendSubscriptionUpgradedEmail(ctx context.Context, to, firstName string, tier enums.SubscriptionTier) error {
	subject := fmt.Sprintf("Your FixLocal plan is now %s", tierLabel(tier))
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your subscription has been upgraded to the <strong>%s</strong> plan. The new features are live on your account now.</p>",
		htmlName(firstName), tierLabel(tier),
	)
	return m.send(ctx, "subscription_upgraded", []string{to}, subject, body)
}

func (m *ResendMailer) SendDepositPaidEmail(ctx context.Context, p PaymentEmailParams) error {
	amount := formatAmount(p.AmountPence, p.Currency)
	subject := fmt.Sprintf("Deposit received for %q", p.JobTitle)
	body := fmt.Sprintf(
		"<p>The deposit of <strong>%s</strong> for %q has been paid. Work can now be scheduled.</p>",
		amount, p.JobTitle,
	)
	return m.send(ctx, "deposit_paid", recipients(p), subject, body)
}

func (m *ResendMailer) SendFinalPaymentPaidEmail(ctx context.Context, p PaymentEmailParams) error {
	amount := formatAmount(p.AmountPence, p.Currency)
	subject := fmt.Sprintf("Final payment received for %q", p.JobTitle)
	body := fmt.Sprintf(
		"<p>The final payment of <strong>%s</strong> for %q has been paid. This job is now settled in full.</p>",
		amount, p.JobTitle,
	)
	return m.send(ctx, "final_payment_paid", recipients(p), subject, body)
}

func (m *ResendMailer) SendJobCompleteEmail(ctx context.Context, to, firstName, jobTitle string) error {
	subject := fmt.Sprintf("%q is complete", jobTitle)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>%q has been marked complete. Thanks for using FixLocal.</p>",
		htmlName(firstName), jobTitle,
	)
	return m.send(ctx, "job_complete", []string{to}, subject, body)
}

func (m *ResendMailer) SendStripeOnboardingSuccessEmail(ctx context.Context, to, firstName string) error {
	subject := "You're ready to take payments"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your payout account is fully set up. Customers can now pay you directly through FixLocal.</p>",
		htmlName(firstName),
	)
	return m.send(ctx, "stripe_onboarding_success", []string{to}, subject, body)
}

func (m *ResendMailer) send(ctx context.Context, kind string, to []string, subject, html string) error {
	addrs := make([]string, 0, len(to))
	for _, a := range to {
		if strings.TrimSpace(a) != "" {
			addrs = append(addrs, strings.TrimSpace(a))
		}
	}
	if len(addrs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "email has no recipients")
	}
	if m.apiKey == "" {
		m.logger.Warn(m.logger.WithField(ctx, "email_kind", kind), "resend api key not configured, dropping email")
		return nil
	}

	payload, err := json.Marshal(emailRequest{
		From:    m.from,
		To:      addrs,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding email payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building email request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("sending %s email", kind))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("resend returned %d for %s email: %s", resp.StatusCode, kind, strings.TrimSpace(string(snippet))))
	}

	m.logger.Info(m.logger.WithField(ctx, "email_kind", kind), "email dispatched")
	return nil
}

func recipients(p PaymentEmailParams) []string {
	return []string{p.CustomerEmail, p.TradespersonEmail}
}

func htmlName(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		return "there"
	}
	return name
}

// formatAmount renders a minor-unit amount as a currency string, e.g. 12550
// pence as "£125.50".
func formatAmount(pence int64, currency string) string {
	value := decimal.NewFromInt(pence).Div(decimal.NewFromInt(100)).StringFixed(2)
	switch strings.ToLower(strings.TrimSpace(currency)) {
	case "", "gbp":
		return "£" + value
	case "usd":
		return "$" + value
	case "eur":
		return "€" + value
	default:
		return fmt.Sprintf("%s %s", strings.ToUpper(currency), value)
	}
}

func tierLabel(tier enums.SubscriptionTier) string {
	switch tier {
	case enums.SubscriptionTierPro:
		return "Pro"
	case enums.SubscriptionTierBusiness:
		return "Business"
	default:
		return string(tier)
	}
}
