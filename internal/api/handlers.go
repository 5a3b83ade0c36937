package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"tourbooking/internal/documents"
	"tourbooking/internal/models"
	"tourbooking/internal/service"

	"github.com/go-chi/chi/v5"
)

type quoteRequest struct {
	PackageID     string               `json:"packageId"`
	Spots         models.Spots         `json:"spots"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

func (s *HTTPServer) handlePackages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"packages": s.svc.Catalog.All()})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	var body quoteRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	quote, err := s.svc.Checkout.Quote(body.PackageID, body.Spots, body.PaymentMethod)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleCreateInquiry(w http.ResponseWriter, r *http.Request) {
	var body models.InquirySubmission
	if !decodeJSON(w, r, &body) {
		return
	}

	record, err := s.svc.Inquiries.Submit(r.Context(), &body)
	if err != nil {
		if errors.Is(err, service.ErrMissingField) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save inquiry")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"inquiryId": record.ID,
		"message":   "Inquiry submitted successfully",
	})
}

func (s *HTTPServer) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Inquiries.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Error reading inquiries")
		writeError(w, http.StatusInternalServerError, "Failed to read inquiries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inquiries": list})
}

func (s *HTTPServer) handleExportInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Inquiries.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Error reading inquiries")
		writeError(w, http.StatusInternalServerError, "Failed to read inquiries")
		return
	}

	var buf bytes.Buffer
	if err := documents.WriteInquiriesWorkbook(&buf, list); err != nil {
		s.logger.Error().Err(err).Msg("Error building inquiries workbook")
		writeError(w, http.StatusInternalServerError, "Failed to export inquiries")
		return
	}

	name := fmt.Sprintf("inquiries_%s.xlsx", s.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Bookings.GetBooking(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *HTTPServer) handleBookingReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Bookings.GetBooking(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := documents.WriteDepositReceipt(&buf, rec, s.now()); err != nil {
		s.logger.Error().Err(err).Str("session_id", rec.SessionID).Msg("Error rendering receipt")
		writeError(w, http.StatusInternalServerError, "Failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "deposit-receipt-"+rec.SessionID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
