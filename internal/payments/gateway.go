package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// ErrNotConfigured is returned by every payment operation when no processor key is set.
var ErrNotConfigured = errors.New("Stripe is not properly configured")

// LineItem is one priced row on the hosted checkout page.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutParams describes a hosted checkout session request.
type CheckoutParams struct {
	Currency           string
	LineItems          []LineItem
	PaymentMethodTypes []string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	ShippingCountries  []string
	Metadata           map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type IntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Gateway creates payment objects on the processor.
type Gateway interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, params IntentParams) (string, error)
}

// NewGateway returns a Stripe gateway bound to secretKey, or the unconfigured
// variant when the key is empty.
func NewGateway(secretKey string) Gateway {
	if secretKey == "" {
		return Unconfigured{}
	}
	return NewStripeGateway(secretKey, nil)
}

// Unconfigured fails every call with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Configured() bool { return false }

func (Unconfigured) CreateCheckoutSession(context.Context, CheckoutParams) (*CheckoutSession, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) CreatePaymentIntent(context.Context, IntentParams) (string, error) {
	return "", ErrNotConfigured
}

// StripeGateway talks to Stripe through per-resource clients; no package-level
// key is set.
type StripeGateway struct {
	sessions session.Client
	intents  paymentintent.Client
}

// NewStripeGateway binds the clients to key. A nil backend uses the default API backend.
func NewStripeGateway(key string, backend stripe.Backend) *StripeGateway {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeGateway{
		sessions: session.Client{B: backend, Key: key},
		intents:  paymentintent.Client{B: backend, Key: key},
	}
}

func (g *StripeGateway) Configured() bool { return true }

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:       stripe.StringSlice(p.PaymentMethodTypes),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(p.SuccessURL),
		CancelURL:                stripe.String(p.CancelURL),
		CustomerEmail:            stripe.String(p.CustomerEmail),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: p.Metadata,
		},
	}
	if len(p.ShippingCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.ShippingCountries),
		}
	}
	for _, item := range p.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: stripe.String(item.Description),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, p IntentParams) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}
