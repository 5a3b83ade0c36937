package api

import (
	"net/http"
	"strconv"

	"tourbooking/internal/models"

	"github.com/go-chi/chi/v5"
)

type createDraftRequest struct {
	PackageID string `json:"packageId"`
}

type paymentMethodRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type termsRequest struct {
	Accepted bool `json:"accepted"`
}

type wizardCheckoutResponse struct {
	SessionID string               `json:"sessionId"`
	URL       string               `json:"url"`
	Draft     *models.BookingDraft `json:"draft"`
}

func draftID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func (s *HTTPServer) writeDraft(w http.ResponseWriter, r *http.Request, draft *models.BookingDraft, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *HTTPServer) handleWizardCreate(w http.ResponseWriter, r *http.Request) {
	var body createDraftRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := s.svc.Wizard.Create(r.Context(), body.PackageID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (s *HTTPServer) handleWizardGet(w http.ResponseWriter, r *http.Request) {
	draft, err := s.svc.Wizard.Get(r.Context(), draftID(r))
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardClose(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Wizard.Close(r.Context(), draftID(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleWizardSpots(w http.ResponseWriter, r *http.Request) {
	var body models.Spots
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := s.svc.Wizard.SetSpots(r.Context(), draftID(r), body)
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardParticipant(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "participant index must be a number")
		return
	}
	var body models.Participant
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := s.svc.Wizard.SetParticipant(r.Context(), draftID(r), index, body)
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardBuyer(w http.ResponseWriter, r *http.Request) {
	var body models.BuyerInfo
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := s.svc.Wizard.SetBuyer(r.Context(), draftID(r), body)
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var body paymentMethodRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := s.svc.Wizard.SetPaymentMethod(r.Context(), draftID(r), body.PaymentMethod)
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardTerms(w http.ResponseWriter, r *http.Request) {
	var body termsRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := s.svc.Wizard.AcceptTerms(r.Context(), draftID(r), body.Accepted)
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardNext(w http.ResponseWriter, r *http.Request) {
	draft, err := s.svc.Wizard.Next(r.Context(), draftID(r))
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardPrevious(w http.ResponseWriter, r *http.Request) {
	draft, err := s.svc.Wizard.Previous(r.Context(), draftID(r))
	s.writeDraft(w, r, draft, err)
}

func (s *HTTPServer) handleWizardQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.svc.Wizard.Quote(r.Context(), draftID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleWizardCheckout(w http.ResponseWriter, r *http.Request) {
	draft, result, err := s.svc.Wizard.Checkout(r.Context(), draftID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wizardCheckoutResponse{
		SessionID: result.SessionID,
		URL:       result.URL,
		Draft:     draft,
	})
}
