package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tourbooking/internal/config"
	"tourbooking/internal/metrics"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
	"tourbooking/internal/pricing"
)

var (
	ErrInvalidEmail         = errors.New("Valid email address is required")
	ErrNoSpots              = errors.New("At least one spot must be selected")
	ErrInvalidPaymentMethod = errors.New("Unsupported payment method")
	ErrInvalidAmount        = errors.New("Amount must be a positive number of cents")
	ErrCheckoutFailed       = errors.New("Failed to create checkout session")
	ErrIntentFailed         = errors.New("Failed to create payment intent")
)

const checkoutSessionPlaceholder = "session_id={CHECKOUT_SESSION_ID}"

type CheckoutService struct {
	gateway  payments.Gateway
	catalog  *Catalog
	schedule pricing.Schedule
	stripe   config.StripeConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewCheckoutService(
	gateway payments.Gateway,
	catalog *Catalog,
	schedule pricing.Schedule,
	stripeCfg config.StripeConfig,
	logger *zerolog.Logger,
) *CheckoutService {
	if stripeCfg.Currency == "" {
		stripeCfg.Currency = "usd"
	}
	return &CheckoutService{
		gateway:  gateway,
		catalog:  catalog,
		schedule: schedule,
		stripe:   stripeCfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Quote prices spots for a package without touching the processor.
func (s *CheckoutService) Quote(packageID string, spots models.Spots, method models.PaymentMethod) (pricing.Quote, error) {
	pkg, ok := s.catalog.Get(packageID)
	if !ok {
		return pricing.Quote{}, ErrUnknownPackage
	}
	method, err := normalizeMethod(method)
	if err != nil {
		return pricing.Quote{}, err
	}
	if !spots.Valid() {
		return pricing.Quote{}, ErrNoSpots
	}
	return s.schedule.ForPackage(pkg).Quote(spots, method, s.now()), nil
}

// CreateCheckout validates the request, recomputes all amounts and opens a
// hosted checkout session. Client-submitted totals are ignored.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error) {
	if !s.gateway.Configured() {
		return nil, payments.ErrNotConfigured
	}
	if !validEmail(req.BuyerInfo.Email) {
		return nil, ErrInvalidEmail
	}
	if !req.Spots.Valid() || req.Spots.Total() == 0 {
		return nil, ErrNoSpots
	}
	method, err := normalizeMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	pkg, err := s.catalog.Bookable(req.PackageID)
	if err != nil {
		return nil, err
	}

	schedule := s.schedule.ForPackage(pkg)
	quote := schedule.Quote(req.Spots, method, s.now())
	facts := bookingFacts(pkg, req, method, quote)
	params := s.checkoutParams(pkg, req, method, schedule, quote, facts.Metadata())

	log := s.logger.With().Str("package_id", pkg.ID).Int("spots", req.Spots.Total()).Str("method", string(method)).Logger()
	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		metrics.IncCheckout(string(method), "error")
		log.Error().Err(err).Msg("Error creating checkout session")
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	metrics.IncCheckout(string(method), "created")
	log.Info().Str("session_id", session.ID).Int64("due_today", int64(quote.TotalDueToday)).Msg("Checkout session created")
	return &models.CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// CreateIntent opens a bare payment intent with automatic payment methods.
func (s *CheckoutService) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (string, error) {
	if !s.gateway.Configured() {
		return "", payments.ErrNotConfigured
	}
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	if currency == "" {
		currency = s.stripe.Currency
	}

	secret, err := s.gateway.CreatePaymentIntent(ctx, payments.IntentParams{
		Amount:   amount,
		Currency: strings.ToLower(currency),
		Metadata: metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("amount", amount).Msg("Error creating payment intent")
		return "", fmt.Errorf("%w: %v", ErrIntentFailed, err)
	}
	return secret, nil
}

func (s *CheckoutService) checkoutParams(
	pkg models.PackageOffering,
	req *models.CheckoutRequest,
	method models.PaymentMethod,
	schedule pricing.Schedule,
	quote pricing.Quote,
	metadata map[string]string,
) payments.CheckoutParams {
	people := "people"
	if quote.Participants == 1 {
		people = "person"
	}
	feeKind := "card payment"
	methodTypes := []string{"card", "link"}
	if method == models.PaymentBankTransfer {
		feeKind = "bank transfer"
		methodTypes = []string{"card", "us_bank_account", "link"}
	}

	return payments.CheckoutParams{
		Currency: s.stripe.Currency,
		LineItems: []payments.LineItem{
			{
				Name:        pkg.Name + " - Deposit",
				Description: fmt.Sprintf("Deposit for %d %s. Installments will be sent separately.", quote.Participants, people),
				UnitAmount:  int64(schedule.DepositPerPerson),
				Quantity:    int64(quote.Participants),
			},
			{
				Name:        "Processing Fee",
				Description: "Stripe processing fee for " + feeKind,
				UnitAmount:  int64(quote.ProcessingFee),
				Quantity:    1,
			},
		},
		PaymentMethodTypes: methodTypes,
		CustomerEmail:      req.BuyerInfo.Email,
		SuccessURL:         successURL(s.stripe.SuccessURL),
		CancelURL:          s.stripe.CancelURL,
		ShippingCountries:  s.stripe.ShippingCountries,
		Metadata:           metadata,
	}
}

func bookingFacts(pkg models.PackageOffering, req *models.CheckoutRequest, method models.PaymentMethod, quote pricing.Quote) payments.BookingFacts {
	names := make([]string, 0, len(req.Participants))
	for _, p := range req.Participants {
		if name := p.FullName(); name != "" {
			names = append(names, name)
		}
	}
	dates := make([]time.Time, len(quote.Installments))
	amounts := make([]int64, len(quote.Installments))
	for i, inst := range quote.Installments {
		dates[i] = inst.DueDate
		amounts[i] = int64(inst.Amount)
	}

	return payments.BookingFacts{
		PackageID:          pkg.ID,
		PackageName:        pkg.Name,
		Spots:              req.Spots,
		ParticipantNames:   names,
		Buyer:              req.BuyerInfo,
		PaymentMethod:      method,
		ChargeTotal:        int64(quote.TotalDueToday),
		PackageTotal:       int64(quote.TotalPackagePrice),
		Deposit:            int64(quote.TotalDeposit),
		ProcessingFee:      int64(quote.ProcessingFee),
		Remaining:          int64(quote.RemainingBalance),
		InstallmentDates:   dates,
		InstallmentAmounts: amounts,
	}
}

// normalizeMethod treats an empty method as card.
func normalizeMethod(m models.PaymentMethod) (models.PaymentMethod, error) {
	if m == "" {
		return models.PaymentCard, nil
	}
	if !m.Valid() {
		return "", ErrInvalidPaymentMethod
	}
	return m, nil
}

func validEmail(email string) bool {
	return strings.TrimSpace(email) != "" && strings.Contains(email, "@")
}

func successURL(base string) string {
	if base == "" || strings.Contains(base, "{CHECKOUT_SESSION_ID}") {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&" + checkoutSessionPlaceholder
	}
	return base + "?" + checkoutSessionPlaceholder
}
