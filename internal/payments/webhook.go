package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"tourbooking/internal/metrics"
)

// SignatureHeader carries the processor's HMAC signature.
const SignatureHeader = "Stripe-Signature"

var (
	ErrInvalidSignature = errors.New("Invalid signature")
	ErrHandlerFailed    = errors.New("Webhook processing failed")
)

// WebhookVerifier authenticates a raw webhook body and decodes the event.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (stripe.Event, error)
}

// NewVerifier returns a Stripe signature verifier, or a verifier that always
// fails with ErrNotConfigured when secret is empty.
func NewVerifier(secret string) WebhookVerifier {
	if secret == "" {
		return UnconfiguredVerifier{}
	}
	return StripeVerifier{secret: secret}
}

type StripeVerifier struct {
	secret string
}

func (v StripeVerifier) Verify(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

type UnconfiguredVerifier struct{}

func (UnconfiguredVerifier) Verify([]byte, string) (stripe.Event, error) {
	return stripe.Event{}, ErrNotConfigured
}

// EventKind enumerates the event types the dispatcher acts on.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindCheckoutSessionCompleted
	KindPaymentIntentSucceeded
	KindPaymentIntentFailed
)

func (k EventKind) String() string {
	switch k {
	case KindCheckoutSessionCompleted:
		return "checkout_session_completed"
	case KindPaymentIntentSucceeded:
		return "payment_intent_succeeded"
	case KindPaymentIntentFailed:
		return "payment_intent_failed"
	default:
		return "unrecognized"
	}
}

func KindOf(t stripe.EventType) EventKind {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted:
		return KindCheckoutSessionCompleted
	case stripe.EventTypePaymentIntentSucceeded:
		return KindPaymentIntentSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		return KindPaymentIntentFailed
	default:
		return KindUnrecognized
	}
}

// EventHandler receives decoded events, one method per kind.
type EventHandler interface {
	HandleCheckoutCompleted(ctx context.Context, s *stripe.CheckoutSession) error
	HandlePaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error
	HandlePaymentFailed(ctx context.Context, pi *stripe.PaymentIntent) error
	HandleUnrecognized(ctx context.Context, event stripe.Event) error
}

// Ledger records processed event ids so redeliveries are not handled twice.
type Ledger interface {
	ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
	CompleteEvent(ctx context.Context, eventID string) error
}

// Outcome is what happened to a verified event.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type Dispatcher struct {
	verifier WebhookVerifier
	handler  EventHandler
	ledger   Ledger
	logger   *zerolog.Logger
}

// NewDispatcher wires the pieces together; ledger may be nil to skip deduplication.
func NewDispatcher(verifier WebhookVerifier, handler EventHandler, ledger Ledger, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{verifier: verifier, handler: handler, ledger: ledger, logger: logger}
}

// Handle verifies payload and dispatches it. Nothing reaches the handler unless
// the signature is valid.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	event, err := d.verifier.Verify(payload, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			metrics.IncWebhook("unknown", "invalid_signature")
			d.logger.Warn().Err(err).Msg("Webhook signature verification failed")
		}
		return "", err
	}
	return d.Dispatch(ctx, event)
}

// Dispatch routes a verified event to its handler exactly once per event id.
func (d *Dispatcher) Dispatch(ctx context.Context, event stripe.Event) (outcome Outcome, err error) {
	kind := KindOf(event.Type)
	log := d.logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

	if d.ledger != nil && event.ID != "" {
		claimed, err := d.ledger.ClaimEvent(ctx, event.ID, string(event.Type))
		if err != nil {
			metrics.IncWebhook(kind.String(), "error")
			return "", fmt.Errorf("%w: claim event: %v", ErrHandlerFailed, err)
		}
		if !claimed {
			log.Info().Msg("Duplicate webhook event acknowledged")
			metrics.IncWebhook(kind.String(), string(OutcomeDuplicate))
			return OutcomeDuplicate, nil
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHandlerFailed, r)
		}
		d.finish(ctx, event, kind, outcome, err, &log)
	}()

	if err := d.route(ctx, kind, event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHandlerFailed, err)
	}
	if kind == KindUnrecognized {
		return OutcomeIgnored, nil
	}
	return OutcomeProcessed, nil
}

func (d *Dispatcher) route(ctx context.Context, kind EventKind, event stripe.Event) error {
	switch kind {
	case KindCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := decodeObject(event, &s); err != nil {
			return err
		}
		return d.handler.HandleCheckoutCompleted(ctx, &s)
	case KindPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := decodeObject(event, &pi); err != nil {
			return err
		}
		return d.handler.HandlePaymentSucceeded(ctx, &pi)
	case KindPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := decodeObject(event, &pi); err != nil {
			return err
		}
		return d.handler.HandlePaymentFailed(ctx, &pi)
	case KindUnrecognized:
		return d.handler.HandleUnrecognized(ctx, event)
	default:
		return fmt.Errorf("unhandled event kind %d", kind)
	}
}

func (d *Dispatcher) finish(ctx context.Context, event stripe.Event, kind EventKind, outcome Outcome, err error, log *zerolog.Logger) {
	useLedger := d.ledger != nil && event.ID != ""
	// the request context may already be canceled when the handler failed
	ledgerCtx := context.WithoutCancel(ctx)

	if err != nil {
		log.Error().Err(err).Msg("Webhook handler failed")
		metrics.IncWebhook(kind.String(), "error")
		if useLedger {
			if relErr := d.ledger.ReleaseEvent(ledgerCtx, event.ID); relErr != nil {
				log.Error().Err(relErr).Msg("Failed to release webhook event")
			}
		}
		return
	}

	metrics.IncWebhook(kind.String(), string(outcome))
	if useLedger {
		if compErr := d.ledger.CompleteEvent(ledgerCtx, event.ID); compErr != nil {
			log.Error().Err(compErr).Msg("Failed to mark webhook event processed")
		}
	}
	log.Debug().Str("outcome", string(outcome)).Msg("Webhook event dispatched")
}

func decodeObject(event stripe.Event, v interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return errors.New("event has no data object")
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("decode %s object: %w", event.Type, err)
	}
	return nil
}
