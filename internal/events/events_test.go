package events

import (
	"errors"
	"testing"

	"tourbooking/internal/models"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int
	bus.Subscribe(EventBookingPaid, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	booking := models.BookingRecord{SessionID: "cs_test_1", PackageName: "December Umrah"}
	if err := bus.PublishJSON(EventBookingPaid, booking); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingPaid {
		t.Errorf("expected type %s, got %s", EventBookingPaid, received.Type)
	}

	var decoded models.BookingRecord
	if err := received.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.SessionID != "cs_test_1" {
		t.Errorf("expected session cs_test_1, got %s", decoded.SessionID)
	}
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	var second int
	var reported error

	bus.OnError(func(_ *Event, err error) { reported = err })
	bus.Subscribe(EventPaymentFailed, func(_ *Event) error { return errors.New("telegram down") })
	bus.Subscribe(EventPaymentFailed, func(_ *Event) error { second++; return nil })

	if err := bus.PublishJSON(EventPaymentFailed, PaymentEventPayload{PaymentIntentID: "pi_1"}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if second != 1 {
		t.Errorf("expected the second handler to run, got %d", second)
	}
	if reported == nil || reported.Error() != "telegram down" {
		t.Errorf("expected handler error to be reported, got %v", reported)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(&Event{Type: "unknown"})
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON(EventInquiryReceived, nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	e := &Event{Type: EventInquiryReceived, Payload: []byte("{")}
	var inq models.InquiryRecord
	if err := e.Decode(&inq); err == nil {
		t.Fatal("expected decode error")
	}
}
