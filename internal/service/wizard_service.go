package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tourbooking/internal/booking"
	"tourbooking/internal/domain"
	"tourbooking/internal/models"
	"tourbooking/internal/pricing"
)

const (
	checkoutAttemptLimit  = 5
	checkoutAttemptWindow = 10 * time.Minute
)

var ErrTooManyAttempts = errors.New("too many checkout attempts, please try again later")

// ValidationError carries the messages that kept a step from completing.
type ValidationError struct {
	Step   int
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d is incomplete: %s", e.Step, strings.Join(e.Errors, "; "))
}

// WizardService persists booking drafts between requests and drives them
// through the wizard steps.
type WizardService struct {
	drafts   domain.DraftRepository
	catalog  *Catalog
	checkout *CheckoutService
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewWizardService(drafts domain.DraftRepository, catalog *Catalog, checkout *CheckoutService, logger *zerolog.Logger) *WizardService {
	return &WizardService{
		drafts:   drafts,
		catalog:  catalog,
		checkout: checkout,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a draft at step 1 for a bookable package.
func (s *WizardService) Create(ctx context.Context, packageID string) (*models.BookingDraft, error) {
	pkg, err := s.catalog.Bookable(packageID)
	if err != nil {
		return nil, err
	}
	draft := models.NewBookingDraft(uuid.NewString(), pkg, s.now())
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("draft_id", draft.ID).Str("package_id", pkg.ID).Msg("Booking draft created")
	return draft, nil
}

func (s *WizardService) Get(ctx context.Context, id string) (*models.BookingDraft, error) {
	return s.drafts.GetDraft(ctx, id)
}

// Close discards the draft.
func (s *WizardService) Close(ctx context.Context, id string) error {
	if _, err := s.drafts.GetDraft(ctx, id); err != nil {
		return err
	}
	return s.drafts.DeleteDraft(ctx, id)
}

func (s *WizardService) SetSpots(ctx context.Context, id string, spots models.Spots) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error { return w.SetSpots(spots) })
}

func (s *WizardService) SetParticipant(ctx context.Context, id string, index int, p models.Participant) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error { return w.SetParticipant(index, p) })
}

func (s *WizardService) SetBuyer(ctx context.Context, id string, b models.BuyerInfo) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error { return w.SetBuyer(b) })
}

func (s *WizardService) SetPaymentMethod(ctx context.Context, id string, m models.PaymentMethod) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error { return w.SetPaymentMethod(m) })
}

func (s *WizardService) AcceptTerms(ctx context.Context, id string, accepted bool) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error { return w.AcceptTerms(accepted) })
}

// Next advances the draft one step. When the current step does not validate
// the draft is returned unchanged with a *ValidationError.
func (s *WizardService) Next(ctx context.Context, id string) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error {
		step := w.Step()
		errs, err := w.Next()
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return &ValidationError{Step: step, Errors: errs}
		}
		return nil
	})
}

func (s *WizardService) Previous(ctx context.Context, id string) (*models.BookingDraft, error) {
	return s.mutate(ctx, id, func(w *booking.Wizard) error {
		w.Previous()
		return nil
	})
}

// Quote prices the draft's current selection.
func (s *WizardService) Quote(ctx context.Context, id string) (pricing.Quote, error) {
	draft, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.checkout.Quote(draft.PackageID, draft.Spots, draft.PaymentMethod)
}

// Checkout opens the hosted checkout session for a draft at the payment step
// and moves it to the summary.
func (s *WizardService) Checkout(ctx context.Context, id string) (*models.BookingDraft, *models.CheckoutResult, error) {
	draft, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	w := booking.NewWizard(draft, s.now)
	if w.Step() != models.StepCheckout {
		return nil, nil, fmt.Errorf("%w: checkout needs step %d, draft is at %d", booking.ErrInvalidStep, models.StepCheckout, w.Step())
	}
	if errs := booking.ValidateThrough(models.StepTerms, draft, s.now()); len(errs) > 0 {
		return nil, nil, &ValidationError{Step: models.StepCheckout, Errors: errs}
	}

	allowed, err := s.drafts.CheckRateLimit(ctx, "checkout:"+id, checkoutAttemptLimit, checkoutAttemptWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("draft_id", id).Msg("Checkout rate limit check failed")
	} else if !allowed {
		return nil, nil, ErrTooManyAttempts
	}

	result, err := s.checkout.CreateCheckout(ctx, &models.CheckoutRequest{
		PackageName:      draft.PackageName,
		PackageID:        draft.PackageID,
		Spots:            draft.Spots,
		BuyerInfo:        draft.BuyerInfo,
		Participants:     draft.Participants,
		ParticipantCount: draft.Spots.Total(),
		PaymentMethod:    draft.PaymentMethod,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := w.AttachCheckout(result.SessionID, result.URL); err != nil {
		return nil, nil, err
	}
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, nil, err
	}
	return draft, result, nil
}

func (s *WizardService) mutate(ctx context.Context, id string, fn func(w *booking.Wizard) error) (*models.BookingDraft, error) {
	draft, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	w := booking.NewWizard(draft, s.now)
	if err := fn(w); err != nil {
		return draft, err
	}
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}
