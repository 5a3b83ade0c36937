package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"tourbooking/internal/domain"
	"tourbooking/internal/events"
	"tourbooking/internal/models"
)

// OperatorNotifier alerts the operator about funnel activity.
type OperatorNotifier interface {
	NotifyBookingPaid(b *models.BookingRecord) error
	NotifyPaymentFailed(p *events.PaymentEventPayload) error
	NotifyInquiry(inq *models.InquiryRecord) error
}

// RegisterSubscribers routes domain events to the Sheets sync queue and the
// operator notifier. Either side may be nil; a failure on one side does not
// skip the other.
func RegisterSubscribers(bus *events.EventBus, syncer domain.SyncWorker, notifier OperatorNotifier, logger *zerolog.Logger) {
	ctx := context.Background()

	bus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event", event.Type).Msg("Event subscriber failed")
	})

	bus.Subscribe(events.EventInquiryReceived, func(event *events.Event) error {
		var inq models.InquiryRecord
		if err := event.Decode(&inq); err != nil {
			return err
		}
		var errs []error
		if syncer != nil {
			errs = append(errs, syncer.EnqueueInquiry(ctx, &inq))
		}
		if notifier != nil {
			errs = append(errs, notifier.NotifyInquiry(&inq))
		}
		return errors.Join(errs...)
	})

	bus.Subscribe(events.EventBookingPaid, func(event *events.Event) error {
		var b models.BookingRecord
		if err := event.Decode(&b); err != nil {
			return err
		}
		var errs []error
		if syncer != nil {
			errs = append(errs, syncer.EnqueueBooking(ctx, &b))
		}
		if notifier != nil {
			errs = append(errs, notifier.NotifyBookingPaid(&b))
		}
		return errors.Join(errs...)
	})

	statusSync := func(event *events.Event) error {
		var p events.PaymentEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		if syncer != nil && p.Booking != nil {
			return syncer.EnqueueStatus(ctx, p.Booking.SessionID, p.Status)
		}
		return nil
	}
	bus.Subscribe(events.EventPaymentSucceeded, statusSync)
	bus.Subscribe(events.EventPaymentFailed, statusSync)

	bus.Subscribe(events.EventPaymentFailed, func(event *events.Event) error {
		if notifier == nil {
			return nil
		}
		var p events.PaymentEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		return notifier.NotifyPaymentFailed(&p)
	})
}
