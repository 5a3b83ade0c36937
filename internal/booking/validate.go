package booking

import (
	"fmt"
	"strings"
	"time"

	"tourbooking/internal/models"
)

// Validate returns the problems blocking the given step. The result depends only on
// the draft and now; an empty result means the step may be left forward.
func Validate(step int, draft *models.BookingDraft, now time.Time) []string {
	errs := []string{}
	if draft == nil {
		return append(errs, "Booking not found")
	}

	switch step {
	case models.StepParticipants:
		errs = validateParticipants(draft, now, errs)
	case models.StepBuyerInfo:
		errs = validateBuyer(draft.BuyerInfo, errs)
	case models.StepPayment:
		if !draft.PaymentMethod.Valid() {
			errs = append(errs, "Please select a payment method")
		}
	case models.StepTerms:
		if !draft.TermsAccepted {
			errs = append(errs, "You must accept the terms and conditions to continue")
		}
	case models.StepCheckout, models.StepSummary:
		// completion of step 5 is the checkout session itself
	}
	return errs
}

// ValidateThrough collects the errors of every step from 1 up to and including last.
func ValidateThrough(last int, draft *models.BookingDraft, now time.Time) []string {
	var errs []string
	for step := models.StepParticipants; step <= last; step++ {
		errs = append(errs, Validate(step, draft, now)...)
	}
	return errs
}

func validateParticipants(draft *models.BookingDraft, now time.Time, errs []string) []string {
	if draft.Spots.Total() == 0 {
		errs = append(errs, "Please select at least one room spot")
	}

	for i, p := range draft.Participants {
		person := fmt.Sprintf("Person %d", i+1)
		require := func(value, what string) {
			if strings.TrimSpace(value) == "" {
				errs = append(errs, person+": "+what+" is required")
			}
		}

		require(p.FirstName, "First name")
		require(p.LastName, "Last name")
		require(p.DateOfBirth, "Date of birth")
		require(p.Phone, "Phone number")
		require(p.Gender, "Gender")
		require(p.Nationality, "Nationality")
		require(p.HasPassport, "Passport status")
		if p.HasPassport == models.AnswerYes {
			require(p.PassportNationality, "Passport issuing country")
		}

		if strings.TrimSpace(p.DateOfBirth) == "" {
			continue
		}
		dob, err := ParseDOB(p.DateOfBirth)
		if err != nil {
			errs = append(errs, person+": Date of birth is invalid")
			continue
		}
		if dob.After(now) {
			errs = append(errs, person+": Date of birth is in the future")
			continue
		}
		if !IsMinor(p.DateOfBirth, now) {
			continue
		}

		switch p.WithGuardian {
		case models.AnswerYes:
			require(p.GuardianFirstName, "Guardian first name")
			require(p.GuardianLastName, "Guardian last name")
		case models.AnswerNo:
		default:
			errs = append(errs, person+": Guardian status is required (under 18)")
		}
	}
	return errs
}

func validateBuyer(b models.BuyerInfo, errs []string) []string {
	if strings.TrimSpace(b.FirstName) == "" {
		errs = append(errs, "Buyer first name is required")
	}
	if strings.TrimSpace(b.LastName) == "" {
		errs = append(errs, "Buyer last name is required")
	}
	if b.Email == "" {
		errs = append(errs, "Buyer email is required")
	}
	if b.ConfirmEmail == "" {
		errs = append(errs, "Email confirmation is required")
	}
	if b.Email != "" && b.ConfirmEmail != "" && b.Email != b.ConfirmEmail {
		errs = append(errs, "Email addresses do not match")
	}
	if strings.TrimSpace(b.Phone) == "" {
		errs = append(errs, "Buyer phone number is required")
	}
	return errs
}
