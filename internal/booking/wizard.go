package booking

import (
	"errors"
	"fmt"
	"time"

	"tourbooking/internal/models"
)

// MaxSpotsPerRoom caps each room category the way the booking form does.
const MaxSpotsPerRoom = 50

var (
	// ErrInvalidStep is returned when an operation does not belong to the draft's current step.
	ErrInvalidStep = errors.New("operation not allowed at current step")
	// ErrFinalStep is returned by Next on the summary step.
	ErrFinalStep = errors.New("wizard is already at the final step")
	// ErrParticipantIndex is returned for an index outside the participant list.
	ErrParticipantIndex = errors.New("participant index out of range")
)

// Wizard drives a BookingDraft through its six linear steps.
type Wizard struct {
	draft *models.BookingDraft
	now   func() time.Time
}

func NewWizard(draft *models.BookingDraft, now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	if draft.CurrentStep < models.StepParticipants {
		draft.CurrentStep = models.StepParticipants
	}
	return &Wizard{draft: draft, now: now}
}

func (w *Wizard) Draft() *models.BookingDraft {
	return w.draft
}

func (w *Wizard) Step() int {
	return w.draft.CurrentStep
}

// Errors validates the current step.
func (w *Wizard) Errors() []string {
	return Validate(w.draft.CurrentStep, w.draft, w.now())
}

// Next advances by exactly one step when the current step validates.
// The returned slice is non-empty exactly when the step did not change.
func (w *Wizard) Next() ([]string, error) {
	if w.draft.CurrentStep >= models.StepSummary {
		return nil, ErrFinalStep
	}
	if errs := w.Errors(); len(errs) > 0 {
		return errs, nil
	}
	w.draft.CurrentStep++
	w.touch()
	return nil, nil
}

// Previous moves back one step and never goes below the first.
func (w *Wizard) Previous() {
	if w.draft.CurrentStep > models.StepParticipants {
		w.draft.CurrentStep--
		w.touch()
	}
}

// SetSpots replaces the room selection and resizes the participant list to match.
func (w *Wizard) SetSpots(spots models.Spots) error {
	if err := w.requireStep(models.StepParticipants); err != nil {
		return err
	}
	w.draft.Spots = models.Spots{
		Dual:   clampSpots(spots.Dual),
		Triple: clampSpots(spots.Triple),
		Quad:   clampSpots(spots.Quad),
	}
	w.draft.Participants = ResizeParticipants(w.draft.Participants, w.draft.Spots.Total())
	w.touch()
	return nil
}

func (w *Wizard) SetParticipant(index int, p models.Participant) error {
	if err := w.requireStep(models.StepParticipants); err != nil {
		return err
	}
	if index < 0 || index >= len(w.draft.Participants) {
		return fmt.Errorf("%w: %d", ErrParticipantIndex, index)
	}
	w.draft.Participants[index] = p
	w.touch()
	return nil
}

func (w *Wizard) SetBuyer(b models.BuyerInfo) error {
	if err := w.requireStep(models.StepBuyerInfo); err != nil {
		return err
	}
	w.draft.BuyerInfo = b
	w.touch()
	return nil
}

func (w *Wizard) SetPaymentMethod(m models.PaymentMethod) error {
	if err := w.requireStep(models.StepPayment); err != nil {
		return err
	}
	w.draft.PaymentMethod = m
	w.touch()
	return nil
}

func (w *Wizard) AcceptTerms(accepted bool) error {
	if err := w.requireStep(models.StepTerms); err != nil {
		return err
	}
	w.draft.TermsAccepted = accepted
	w.touch()
	return nil
}

// AttachCheckout records the created checkout session and moves the draft to the summary.
func (w *Wizard) AttachCheckout(sessionID, url string) error {
	if err := w.requireStep(models.StepCheckout); err != nil {
		return err
	}
	w.draft.CheckoutSessionID = sessionID
	w.draft.CheckoutURL = url
	w.draft.CurrentStep = models.StepSummary
	w.touch()
	return nil
}

// ResizeParticipants returns a list of exactly total entries that keeps
// existing entries by index and pads with empty participants.
func ResizeParticipants(current []models.Participant, total int) []models.Participant {
	if total < 0 {
		total = 0
	}
	out := make([]models.Participant, total)
	copy(out, current)
	return out
}

func (w *Wizard) requireStep(step int) error {
	if w.draft.CurrentStep != step {
		return fmt.Errorf("%w: at step %d, need step %d", ErrInvalidStep, w.draft.CurrentStep, step)
	}
	return nil
}

func (w *Wizard) touch() {
	w.draft.UpdatedAt = w.now()
}

func clampSpots(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxSpotsPerRoom:
		return MaxSpotsPerRoom
	default:
		return n
	}
}
