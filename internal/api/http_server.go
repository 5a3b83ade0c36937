package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tourbooking/internal/config"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
	"tourbooking/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// BookingReader looks up bookings recorded by the webhook.
type BookingReader interface {
	GetBooking(ctx context.Context, sessionID string) (*models.BookingRecord, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is everything the HTTP API delegates to.
type Services struct {
	Catalog   *service.Catalog
	Checkout  *service.CheckoutService
	Wizard    *service.WizardService
	Inquiries *service.InquiryService
	Webhooks  *payments.Dispatcher
	Bookings  BookingReader
	Health    Pinger
}

// HTTPServer exposes the booking funnel over HTTP.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     Services
	server  *http.Server
	auth    *HTTPAuth
	limiter *rateLimiter
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		auth:    NewHTTPAuth(cfg),
		limiter: newRateLimiter(&cfg),
		logger:  logger,
		now:     time.Now,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the root handler; tests mount it on httptest servers.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/packages", s.handlePackages)
		r.With(s.limiter.Middleware).Post("/quote", s.handleQuote)

		r.Route("/inquiries", func(r chi.Router) {
			r.With(s.limiter.Middleware).Post("/", s.handleCreateInquiry)
			r.With(s.auth.Require(permReadInquiries)).Get("/", s.handleListInquiries)
			r.With(s.auth.Require(permReadInquiries)).Get("/export", s.handleExportInquiries)
		})

		r.With(s.limiter.Middleware).Post("/stripe/create-checkout", s.handleCreateCheckout)
		r.With(s.limiter.Middleware).Post("/payments/create-intent", s.handleCreateIntent)
		r.Post("/stripe/webhook", s.handleWebhook)
		r.Post("/payments/webhook", s.handleWebhook)

		r.Route("/bookings/{sessionId}", func(r chi.Router) {
			r.Use(s.auth.Require(permReadBookings))
			r.Get("/", s.handleGetBooking)
			r.Get("/receipt.pdf", s.handleBookingReceipt)
		})

		r.Route("/wizard", func(r chi.Router) {
			r.With(s.limiter.Middleware).Post("/", s.handleWizardCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleWizardGet)
				r.Delete("/", s.handleWizardClose)
				r.Put("/spots", s.handleWizardSpots)
				r.Put("/participants/{index}", s.handleWizardParticipant)
				r.Put("/buyer", s.handleWizardBuyer)
				r.Put("/payment-method", s.handleWizardPaymentMethod)
				r.Put("/terms", s.handleWizardTerms)
				r.Post("/next", s.handleWizardNext)
				r.Post("/previous", s.handleWizardPrevious)
				r.Get("/quote", s.handleWizardQuote)
				r.With(s.limiter.Middleware).Post("/checkout", s.handleWizardCheckout)
			})
		})
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		if err := s.svc.Health.Ping(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
