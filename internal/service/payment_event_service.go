package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"tourbooking/internal/database"
	"tourbooking/internal/domain"
	"tourbooking/internal/events"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
)

// PaymentEventService turns verified processor events into stored bookings
// and domain events.
type PaymentEventService struct {
	bookings domain.BookingStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewPaymentEventService(bookings domain.BookingStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *PaymentEventService {
	return &PaymentEventService{
		bookings: bookings,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *PaymentEventService) HandleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	record, err := payments.BookingFromMetadata(session.ID, session.Metadata)
	if errors.Is(err, payments.ErrNotBooking) {
		s.logger.Warn().Str("session_id", session.ID).Msg("Completed checkout session has no booking metadata")
		return nil
	}
	if err != nil {
		return err
	}

	if session.CustomerEmail != "" {
		record.BuyerInfo.Email = session.CustomerEmail
	}
	if session.PaymentIntent != nil {
		record.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.AmountTotal > 0 {
		record.ChargedAmount = session.AmountTotal
	}
	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now

	inserted, err := s.bookings.SaveBooking(ctx, record)
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.Info().Str("session_id", session.ID).Msg("Booking already stored")
		return nil
	}

	s.logger.Info().
		Str("session_id", record.SessionID).
		Str("package_id", record.PackageID).
		Int("spots", record.Spots.Total()).
		Msg("Booking deposit paid")
	s.publish(events.EventBookingPaid, record)
	return nil
}

func (s *PaymentEventService) HandlePaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	return s.updateStatus(ctx, pi, models.PaymentStatusDepositPaid, events.EventPaymentSucceeded)
}

func (s *PaymentEventService) HandlePaymentFailed(ctx context.Context, pi *stripe.PaymentIntent) error {
	return s.updateStatus(ctx, pi, models.PaymentStatusPaymentFailed, events.EventPaymentFailed)
}

func (s *PaymentEventService) HandleUnrecognized(_ context.Context, event stripe.Event) error {
	s.logger.Info().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("Unhandled event type")
	return nil
}

// updateStatus marks the booking paid by pi; an intent with no stored booking
// still produces the domain event.
func (s *PaymentEventService) updateStatus(ctx context.Context, pi *stripe.PaymentIntent, status, eventType string) error {
	booking, err := s.bookings.UpdatePaymentStatusByIntent(ctx, pi.ID, status)
	if err != nil && !errors.Is(err, database.ErrBookingNotFound) {
		return err
	}

	payload := events.PaymentEventPayload{
		PaymentIntentID: pi.ID,
		Status:          status,
		Amount:          pi.Amount,
		Booking:         booking,
	}
	if pi.LastPaymentError != nil {
		payload.FailureMessage = pi.LastPaymentError.Msg
	}

	log := s.logger.Info()
	if status == models.PaymentStatusPaymentFailed {
		log = s.logger.Warn().Str("reason", payload.FailureMessage)
	}
	log.Str("payment_intent_id", pi.ID).Bool("matched", booking != nil).Msg("Payment intent " + status)

	s.publish(eventType, payload)
	return nil
}

func (s *PaymentEventService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
