package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/fixlocal/fixlocal-backend/pkg/errors"
)

// handleAccountUpdated flips the tradesperson's onboarding flag once their
// connected account can take charges. The congratulations email only goes
// out on the false-to-true transition; later account updates stay quiet.
func (s *Service) handleAccountUpdated(ctx context.Context, account *stripe.Account) error {
	if !account.ChargesEnabled || !account.DetailsSubmitted {
		return nil
	}

	user, err := s.users.FindByStripeAccountID(ctx, account.ID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			s.logg.Info(s.logg.WithField(ctx, "stripe_account_id", account.ID), "account update for unknown user")
			return nil
		}
		return err
	}
	if user.StripeOnboardingComplete {
		return nil
	}
	ctx = s.logg.WithUserID(ctx, user.ID.String())

	var marked bool
	_ = s.executor.Execute(ctx, "stripe onboarding flag", func(ctx context.Context) error {
		if execErr := s.users.MarkStripeOnboarded(ctx, user.ID); execErr != nil {
			return execErr
		}
		marked = true
		return nil
	})
	if !marked {
		return nil
	}

	if err := s.mailer.SendStripeOnboardingSuccessEmail(ctx, user.Email, user.FirstName); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "onboarding email failed")
	}
	return nil
}
