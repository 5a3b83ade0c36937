package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tourbooking/internal/config"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
	"tourbooking/internal/pricing"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testCatalog() *Catalog {
	return NewCatalog([]models.PackageOffering{
		{ID: "dec-2026", Name: "December Retreat", Status: models.PackageStandard},
		{ID: "jan-2027", Name: "January Retreat", Status: models.PackageSoldOut},
		{ID: "aug-2027", Name: "August Journey", Status: models.PackageInquiry},
		{ID: "vip-2026", Name: "VIP Retreat", Status: models.PackageStandard,
			RoomPrices: map[models.RoomCategory]int64{models.RoomDual: 5000}},
	})
}

type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	sessions   []payments.CheckoutParams
	intents    []payments.IntentParams
	err        error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{configured: true}
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sessions = append(g.sessions, p)
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, p payments.IntentParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.intents = append(g.intents, p)
	return "pi_secret", nil
}

func (g *fakeGateway) lastSession() payments.CheckoutParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessions[len(g.sessions)-1]
}

func newCheckoutService(gw payments.Gateway) *CheckoutService {
	svc := NewCheckoutService(gw, testCatalog(), pricing.DefaultSchedule(), config.StripeConfig{
		SuccessURL:        "https://tours.example/booking-success",
		CancelURL:         "https://tours.example/packages",
		ShippingCountries: []string{"US", "CA"},
	}, nopLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

type published struct {
	Type    string
	Payload json.RawMessage
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishJSON(eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Type: eventType, Payload: raw})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func adultParticipant(first string) models.Participant {
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

func validBuyer() models.BuyerInfo {
	return models.BuyerInfo{
		FirstName:    "Ana",
		LastName:     "Diaz",
		Email:        "ana@example.com",
		ConfirmEmail: "ana@example.com",
		Phone:        "+1 555 0100",
	}
}
