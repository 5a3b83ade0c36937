package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tourbooking/internal/config"
	"tourbooking/internal/database"
	"tourbooking/internal/events"
	"tourbooking/internal/inquiries"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
	"tourbooking/internal/pricing"
	"tourbooking/internal/repository"
	"tourbooking/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_api_test"

type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	sessions   []payments.CheckoutParams
	err        error
}

func (g *fakeGateway) Configured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configured
}

func (g *fakeGateway) set(configured bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.configured = configured
	g.err = err
}

func (g *fakeGateway) recorded() []payments.CheckoutParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payments.CheckoutParams(nil), g.sessions...)
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sessions = append(g.sessions, p)
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, _ payments.IntentParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return "pi_test_secret_1", nil
}

type testEnv struct {
	ts         *httptest.Server
	db         *database.DB
	gateway    *fakeGateway
	inquiryDir string
}

func testPackages() []models.PackageOffering {
	return []models.PackageOffering{
		{ID: "dec-2026", Name: "December Retreat", Status: models.PackageStandard},
		{ID: "aug-2027", Name: "August Journey", Status: models.PackageInquiry},
	}
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gw := &fakeGateway{configured: true}
	catalog := service.NewCatalog(testPackages())
	checkout := service.NewCheckoutService(gw, catalog, pricing.DefaultSchedule(), config.StripeConfig{
		SuccessURL:        "https://tours.example/booking-success",
		CancelURL:         "https://tours.example/packages",
		Currency:          "usd",
		ShippingCountries: []string{"US"},
	}, &logger)
	wizard := service.NewWizardService(repository.NewMemoryDraftRepository(time.Hour), catalog, checkout, &logger)

	inquiryDir := filepath.Join(t.TempDir(), "inquiries")
	inquirySvc := service.NewInquiryService(inquiries.NewFileStore(inquiryDir, &logger), nil, &logger)

	handler := service.NewPaymentEventService(db, events.NewEventBus(), &logger)
	dispatcher := payments.NewDispatcher(payments.NewVerifier(testWebhookSecret), handler, db, &logger)

	srv := NewHTTPServer(cfg, Services{
		Catalog:   catalog,
		Checkout:  checkout,
		Wizard:    wizard,
		Inquiries: inquirySvc,
		Webhooks:  dispatcher,
		Bookings:  db,
		Health:    db,
	}, &logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, db: db, gateway: gw, inquiryDir: inquiryDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func signPayload(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	}).Header
}

func checkoutCompletedEvent(t *testing.T, eventID string) []byte {
	t.Helper()
	facts := payments.BookingFacts{
		PackageID:        "dec-2026",
		PackageName:      "December Retreat",
		Spots:            models.Spots{Dual: 2, Triple: 1},
		ParticipantNames: []string{"Ana Diaz", "Luis Diaz", "Eva Diaz"},
		Buyer:            buyer(),
		PaymentMethod:    models.PaymentCard,
		ChargeTotal:      231555,
		PackageTotal:     1235000,
		Deposit:          225000,
		ProcessingFee:    6555,
		Remaining:        1010000,
		InstallmentDates: []time.Time{
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		InstallmentAmounts: []int64{336667, 336667, 336666},
	}
	raw, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2020-01-01",
		"data": map[string]any{"object": map[string]any{
			"id":             "cs_test_1",
			"object":         "checkout.session",
			"customer_email": "ana@example.com",
			"payment_intent": "pi_test_1",
			"metadata":       facts.Metadata(),
		}},
	})
	require.NoError(t, err)
	return raw
}

func adult(first string) models.Participant {
	return models.Participant{
		FirstName:   first,
		LastName:    "Diaz",
		DateOfBirth: "1990-04-12",
		Phone:       "+1 555 0101",
		Gender:      "female",
		Nationality: "US",
		HasPassport: models.AnswerNo,
	}
}

func buyer() models.BuyerInfo {
	return models.BuyerInfo{
		FirstName:    "Ana",
		LastName:     "Diaz",
		Email:        "ana@example.com",
		ConfirmEmail: "ana@example.com",
		Phone:        "+1 555 0100",
	}
}
