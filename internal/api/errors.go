package api

import (
	"errors"
	"net/http"

	"tourbooking/internal/booking"
	"tourbooking/internal/database"
	"tourbooking/internal/domain"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
	"tourbooking/internal/service"
)

const retryHint = " Please try again or contact support."

// writeServiceError maps a service error onto the HTTP error taxonomy.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"step":   verr.Step,
			"title":  models.StepTitles[verr.Step],
			"errors": verr.Errors,
		})
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrNoSpots),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnknownPackage),
		errors.Is(err, service.ErrPackageUnavailable),
		errors.Is(err, service.ErrMissingField),
		errors.Is(err, booking.ErrParticipantIndex):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "booking draft not found")
	case errors.Is(err, database.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, booking.ErrInvalidStep), errors.Is(err, booking.ErrFinalStep):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, payments.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, payments.ErrNotConfigured.Error())
	case errors.Is(err, service.ErrCheckoutFailed):
		writeError(w, http.StatusBadGateway, service.ErrCheckoutFailed.Error()+"."+retryHint)
	case errors.Is(err, service.ErrIntentFailed):
		writeError(w, http.StatusBadGateway, service.ErrIntentFailed.Error()+"."+retryHint)
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
