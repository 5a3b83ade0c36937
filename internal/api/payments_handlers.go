package api

import (
	"errors"
	"io"
	"net/http"

	"tourbooking/internal/models"
	"tourbooking/internal/payments"
)

type intentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

func (s *HTTPServer) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var body models.CheckoutRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := s.svc.Checkout.CreateCheckout(r.Context(), &body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var body intentRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	secret, err := s.svc.Checkout.CreateIntent(r.Context(), body.Amount, body.Currency, body.Metadata)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

// handleWebhook serves both processor webhook paths. The body is read raw;
// the signature covers the exact bytes.
func (s *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, models.MaxWebhookBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	_, err = s.svc.Webhooks.Handle(r.Context(), payload, r.Header.Get(payments.SignatureHeader))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, payments.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, payments.ErrInvalidSignature.Error())
	case errors.Is(err, payments.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "Webhook secret is not configured")
	default:
		writeError(w, http.StatusInternalServerError, payments.ErrHandlerFailed.Error())
	}
}
