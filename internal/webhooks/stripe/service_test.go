package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/fixlocal/fixlocal-backend/internal/jobs"
	"github.com/fixlocal/fixlocal-backend/internal/notifications"
	"github.com/fixlocal/fixlocal-backend/internal/users"
	"github.com/fixlocal/fixlocal-backend/pkg/db/models"
	"github.com/fixlocal/fixlocal-backend/pkg/enums"
	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
)

const businessMonthlyPriceID = "price_business_monthly"

type serviceFixture struct {
	service *Service
	users   *stubUserRepo
	jobs    *stubJobRepo
	api     *stubEventAPI
	mailer  *stubMailer
	store   *memoryIdempotencyStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	userRepo := &stubUserRepo{users: map[uuid.UUID]*models.User{}}
	jobRepo := &stubJobRepo{}
	api := &stubEventAPI{}
	mailer := &stubMailer{}
	store := newMemoryStore()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	resolver := NewTierResolver(map[string]enums.SubscriptionTier{
		businessMonthlyPriceID: enums.SubscriptionTierBusiness,
	}, api)

	service, err := NewService(ServiceParams{
		Users:    userRepo,
		Jobs:     jobRepo,
		API:      api,
		Tiers:    resolver,
		Executor: directExecutor{},
		Mailer:   mailer,
		Store:    store,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return &serviceFixture{service: service, users: userRepo, jobs: jobRepo, api: api, mailer: mailer, store: store}
}

func (f *serviceFixture) seedUser(tier enums.SubscriptionTier, role enums.UserRole) *models.User {
	user := &models.User{
		ID:               uuid.New(),
		Email:            "jo@example.com",
		FirstName:        "Jo",
		Role:             role,
		SubscriptionTier: tier,
	}
	f.users.users[user.ID] = user
	return user
}

func subscriptionEvent(t *testing.T, eventType stripe.EventType, sub *stripe.Subscription) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return &stripe.Event{ID: "evt_" + uuid.NewString(), Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func TestSubscriptionUpdatedReconcilesUserAndSendsUpgradeEmail(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierBasic, enums.UserRoleTradesperson)

	periodEnd := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Customer: &stripe.Customer{ID: "cus_1"},
		Metadata: map[string]string{"userId": user.ID.String()},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			CurrentPeriodEnd: periodEnd.Unix(),
			Price:            &stripe.Price{ID: businessMonthlyPriceID},
		}}},
	}

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(f.users.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(f.users.patches))
	}
	patch := f.users.patches[0]
	if patch.Status == nil || *patch.Status != enums.SubscriptionStatusActive {
		t.Fatalf("status not patched: %+v", patch.Status)
	}
	if patch.StripeSubscriptionID == nil || *patch.StripeSubscriptionID != "sub_1" {
		t.Fatalf("subscription id not patched")
	}
	if patch.StripeCustomerID == nil || *patch.StripeCustomerID != "cus_1" {
		t.Fatalf("customer id not patched")
	}
	if patch.CurrentPeriodEnd == nil || !patch.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end not patched: %+v", patch.CurrentPeriodEnd)
	}
	if patch.Tier == nil || *patch.Tier != enums.SubscriptionTierBusiness {
		t.Fatalf("tier not resolved from price table: %+v", patch.Tier)
	}
	if patch.Role == nil || *patch.Role != enums.UserRoleBusinessTradesperson {
		t.Fatalf("role not derived from tier: %+v", patch.Role)
	}
	if len(f.mailer.upgrades) != 1 || f.mailer.upgrades[0].tier != enums.SubscriptionTierBusiness {
		t.Fatalf("expected one upgrade email, got %+v", f.mailer.upgrades)
	}
}

func TestDowngradeToBasicSuppressesUpgradeEmail(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierPro, enums.UserRoleProTradesperson)

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"userId": user.ID.String(), "tier": "basic"},
	}

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(f.users.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(f.users.patches))
	}
	if patch := f.users.patches[0]; patch.Tier == nil || *patch.Tier != enums.SubscriptionTierBasic {
		t.Fatalf("tier downgrade not applied: %+v", patch.Tier)
	}
	if len(f.mailer.upgrades) != 0 {
		t.Fatalf("downgrade must not send upgrade email, got %+v", f.mailer.upgrades)
	}
}

func TestUnresolvedTierLeavesStoredTierUntouched(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierPro, enums.UserRoleProTradesperson)

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusPastDue,
		Metadata: map[string]string{"userId": user.ID.String()},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Price: &stripe.Price{ID: "price_unknown"},
		}}},
	}

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(f.users.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(f.users.patches))
	}
	patch := f.users.patches[0]
	if patch.Tier != nil || patch.Role != nil {
		t.Fatalf("unresolved tier must not patch tier or role: %+v", patch)
	}
	if patch.Status == nil || *patch.Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("status must still be patched: %+v", patch.Status)
	}
	if f.users.users[user.ID].SubscriptionTier != enums.SubscriptionTierPro {
		t.Fatalf("stored tier changed to %s", f.users.users[user.ID].SubscriptionTier)
	}
	if len(f.mailer.upgrades) != 0 {
		t.Fatalf("no email expected, got %+v", f.mailer.upgrades)
	}
}

func TestSubscriptionWithoutCustomerKeepsStoredCustomerID(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierPro, enums.UserRoleProTradesperson)
	stored := "cus_stored"
	user.StripeCustomerID = &stored

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"userId": user.ID.String(), "tier": "pro"},
	}

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	patch := f.users.patches[0]
	if patch.StripeCustomerID == nil || *patch.StripeCustomerID != "cus_stored" {
		t.Fatalf("stored customer id not preserved: %+v", patch.StripeCustomerID)
	}
}

func TestSubscriptionEventForUnknownUserIsDropped(t *testing.T) {
	f := newServiceFixture(t)

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"userId": uuid.NewString()},
	}

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected drop without error, got %v", err)
	}
	if len(f.users.patches) != 0 {
		t.Fatalf("no patch expected, got %d", len(f.users.patches))
	}
}

func TestSubscriptionFetchFailureSurfacesError(t *testing.T) {
	f := newServiceFixture(t)
	f.api.subscriptionErr = errors.New("stripe down")

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	err := f.service.HandleEvent(context.Background(), event)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestInvoicePaymentFailedRefetchesSubscription(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierPro, enums.UserRoleProTradesperson)

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusPastDue,
		Metadata: map[string]string{"userId": user.ID.String(), "tier": "pro"},
	}

	event := &stripe.Event{
		ID:   "evt_invoice",
		Type: stripe.EventTypeInvoicePaymentFailed,
		Data: &stripe.EventData{Object: map[string]interface{}{"subscription": "sub_1"}},
	}
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(f.users.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(f.users.patches))
	}
	if patch := f.users.patches[0]; patch.Status == nil || *patch.Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("status = %+v, want past_due", patch.Status)
	}
}

func TestCheckoutThenSubscriptionSendsSingleUpgradeEmail(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierBasic, enums.UserRoleTradesperson)

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"userId": user.ID.String(), "tier": "pro"},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour).Unix(),
		}}},
	}

	session := &stripe.CheckoutSession{
		ID:           "cs_1",
		Mode:         stripe.CheckoutSessionModeSubscription,
		Customer:     &stripe.Customer{ID: "cus_1"},
		Subscription: &stripe.Subscription{ID: "sub_1"},
		Metadata:     map[string]string{"userId": user.ID.String(), "tier": "pro"},
	}
	raw, _ := json.Marshal(session)
	checkoutEvent := &stripe.Event{
		ID:   "evt_checkout",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
	if err := f.service.HandleEvent(context.Background(), checkoutEvent); err != nil {
		t.Fatalf("handle checkout: %v", err)
	}

	if len(f.users.patches) != 1 {
		t.Fatalf("patches = %d, want 1 after checkout", len(f.users.patches))
	}
	if patch := f.users.patches[0]; patch.Status == nil || *patch.Status != enums.SubscriptionStatusActive {
		t.Fatalf("checkout must bootstrap active status: %+v", patch.Status)
	}
	if len(f.mailer.upgrades) != 0 {
		t.Fatalf("checkout must not send upgrade email, got %+v", f.mailer.upgrades)
	}

	subEvent := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), subEvent); err != nil {
		t.Fatalf("handle subscription: %v", err)
	}
	if len(f.mailer.upgrades) != 1 {
		t.Fatalf("exactly one upgrade email expected, got %d", len(f.mailer.upgrades))
	}
	if f.mailer.upgrades[0].tier != enums.SubscriptionTierPro {
		t.Fatalf("upgrade email tier = %s, want pro", f.mailer.upgrades[0].tier)
	}

	redelivered := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), redelivered); err != nil {
		t.Fatalf("handle redelivered subscription: %v", err)
	}
	if len(f.mailer.upgrades) != 1 {
		t.Fatalf("redelivery must not send a second email, got %d", len(f.mailer.upgrades))
	}
}

func TestCheckoutUpgradeDefersEmailToSubscriptionEvent(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierBasic, enums.UserRoleTradesperson)

	session := &stripe.CheckoutSession{
		ID:           "cs_1",
		Mode:         stripe.CheckoutSessionModeSubscription,
		Subscription: &stripe.Subscription{ID: "sub_1"},
		Metadata:     map[string]string{"userId": user.ID.String(), "tier": "business"},
	}
	f.api.subscription = &stripe.Subscription{ID: "sub_1", Status: stripe.SubscriptionStatusActive}
	raw, _ := json.Marshal(session)
	checkoutEvent := &stripe.Event{
		ID:   "evt_checkout",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
	if err := f.service.HandleEvent(context.Background(), checkoutEvent); err != nil {
		t.Fatalf("handle checkout: %v", err)
	}

	key := f.store.IdempotencyKey(upgradeEmailScope, user.ID.String())
	if f.store.keys[key] == "" {
		t.Fatalf("checkout upgrade must leave a deferred email marker")
	}
	if len(f.mailer.upgrades) != 0 {
		t.Fatalf("checkout must not send the email itself, got %+v", f.mailer.upgrades)
	}

	f.api.subscription = &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"userId": user.ID.String(), "tier": "business"},
	}
	subEvent := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, &stripe.Subscription{ID: "sub_1"})
	if err := f.service.HandleEvent(context.Background(), subEvent); err != nil {
		t.Fatalf("handle subscription: %v", err)
	}
	if len(f.mailer.upgrades) != 1 || f.mailer.upgrades[0].tier != enums.SubscriptionTierBusiness {
		t.Fatalf("subscription event must deliver the deferred email, got %+v", f.mailer.upgrades)
	}
	if f.store.keys[key] != "" {
		t.Fatalf("deferred marker must be consumed after sending")
	}
}

func TestCheckoutPaymentModeIsNoOp(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierBasic, enums.UserRoleCustomer)

	session := &stripe.CheckoutSession{
		ID:       "cs_1",
		Mode:     stripe.CheckoutSessionModePayment,
		Metadata: map[string]string{"userId": user.ID.String()},
	}
	raw, _ := json.Marshal(session)
	event := &stripe.Event{
		ID:   "evt_checkout",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(f.users.patches) != 0 {
		t.Fatalf("payment-mode checkout must not touch the user, got %d patches", len(f.users.patches))
	}
}

func TestCheckoutSubscriptionLookupFailureStillBootstraps(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(enums.SubscriptionTierBasic, enums.UserRoleTradesperson)
	f.api.subscriptionErr = errors.New("stripe down")

	session := &stripe.CheckoutSession{
		ID:           "cs_1",
		Mode:         stripe.CheckoutSessionModeSubscription,
		Subscription: &stripe.Subscription{ID: "sub_1"},
		Metadata:     map[string]string{"userId": user.ID.String(), "tier": "pro"},
	}
	raw, _ := json.Marshal(session)
	event := &stripe.Event{
		ID:   "evt_checkout",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(f.users.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(f.users.patches))
	}
	patch := f.users.patches[0]
	if patch.CurrentPeriodEnd != nil {
		t.Fatalf("period end must stay null when lookup fails: %+v", patch.CurrentPeriodEnd)
	}
	if patch.Tier == nil || *patch.Tier != enums.SubscriptionTierPro {
		t.Fatalf("tier from session metadata expected: %+v", patch.Tier)
	}
}

func TestUnrecognizedEventTypeIsIgnored(t *testing.T) {
	f := newServiceFixture(t)

	event := &stripe.Event{
		ID:   "evt_x",
		Type: stripe.EventType("charge.refunded"),
		Data: &stripe.EventData{Raw: []byte("{}")},
	}
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unrecognized type must be ignored, got %v", err)
	}
}

type directExecutor struct{}

func (directExecutor) Execute(ctx context.Context, description string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubUserRepo struct {
	users     map[uuid.UUID]*models.User
	patches   []users.SubscriptionPatch
	onboarded []uuid.UUID
	patchErr  error
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	clone := *user
	return &clone, nil
}

func (s *stubUserRepo) FindByStripeAccountID(ctx context.Context, accountID string) (*models.User, error) {
	for _, user := range s.users {
		if user.StripeAccountID != nil && *user.StripeAccountID == accountID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found for stripe account")
}

func (s *stubUserRepo) ApplySubscriptionPatch(ctx context.Context, id uuid.UUID, patch users.SubscriptionPatch) (*models.User, error) {
	if s.patchErr != nil {
		return nil, s.patchErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.patches = append(s.patches, patch)
	if patch.Status != nil {
		user.SubscriptionStatus = patch.Status
	}
	if patch.Tier != nil {
		user.SubscriptionTier = *patch.Tier
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.StripeCustomerID != nil {
		user.StripeCustomerID = patch.StripeCustomerID
	}
	if patch.StripeSubscriptionID != nil {
		user.StripeSubscriptionID = patch.StripeSubscriptionID
	}
	clone := *user
	return &clone, nil
}

func (s *stubUserRepo) MarkStripeOnboarded(ctx context.Context, id uuid.UUID) error {
	if user, ok := s.users[id]; ok {
		user.StripeOnboardingComplete = true
	}
	s.onboarded = append(s.onboarded, id)
	return nil
}

type stubJobRepo struct {
	job          *models.Job
	quoteCalls   []string
	entries      []jobs.PaymentEntry
	applyJobErr  error
	markQuoteErr error
}

func (s *stubJobRepo) FindJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if s.job == nil || s.job.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	return s.job, nil
}

func (s *stubJobRepo) MarkQuotePaid(ctx context.Context, quoteID uuid.UUID, paymentIntentID string, status enums.PaymentStatus, paidAt time.Time) error {
	if s.markQuoteErr != nil {
		return s.markQuoteErr
	}
	s.quoteCalls = append(s.quoteCalls, paymentIntentID)
	return nil
}

func (s *stubJobRepo) ApplyJobPayment(ctx context.Context, jobID uuid.UUID, entry jobs.PaymentEntry) (*models.Job, error) {
	if s.applyJobErr != nil {
		return nil, s.applyJobErr
	}
	if s.job == nil || s.job.ID != jobID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	s.entries = append(s.entries, entry)
	return s.job, nil
}

type upgradeEmail struct {
	to   string
	tier enums.SubscriptionTier
}

type stubMailer struct {
	upgrades    []upgradeEmail
	deposits    []notifications.PaymentEmailParams
	finals      []notifications.PaymentEmailParams
	completes   []string
	onboardings []string
	sendErr     error
}

func (s *stubMailer) SendSubscriptionUpgradedEmail(ctx context.Context, to, firstName string, tier enums.SubscriptionTier) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.upgrades = append(s.upgrades, upgradeEmail{to: to, tier: tier})
	return nil
}

func (s *stubMailer) SendDepositPaidEmail(ctx context.Context, p notifications.PaymentEmailParams) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.deposits = append(s.deposits, p)
	return nil
}

func (s *stubMailer) SendFinalPaymentPaidEmail(ctx context.Context, p notifications.PaymentEmailParams) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.finals = append(s.finals, p)
	return nil
}

func (s *stubMailer) SendJobCompleteEmail(ctx context.Context, to, firstName, jobTitle string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.completes = append(s.completes, to)
	return nil
}

func (s *stubMailer) SendStripeOnboardingSuccessEmail(ctx context.Context, to, firstName string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.onboardings = append(s.onboardings, to)
	return nil
}

type stubEventAPI struct {
	subscription    *stripe.Subscription
	subscriptionErr error
	session         *stripe.CheckoutSession
	sessionErr      error
	sessionCalls    int
	charge          *stripe.Charge
	chargeErr       error
}

func (s *stubEventAPI) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	if s.subscriptionErr != nil {
		return nil, s.subscriptionErr
	}
	return s.subscription, nil
}

func (s *stubEventAPI) GetCheckoutSessionWithLineItems(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	s.sessionCalls++
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return s.session, nil
}

func (s *stubEventAPI) GetCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return s.charge, nil
}
