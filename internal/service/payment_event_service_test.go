package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"tourbooking/internal/database"
	"tourbooking/internal/events"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
)

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) SaveBooking(ctx context.Context, b *models.BookingRecord) (bool, error) {
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) GetBooking(ctx context.Context, sessionID string) (*models.BookingRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingRecord), args.Error(1)
}

func (m *mockBookingStore) UpdatePaymentStatusByIntent(ctx context.Context, intentID, status string) (*models.BookingRecord, error) {
	args := m.Called(ctx, intentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingRecord), args.Error(1)
}

func completedSession() *stripe.CheckoutSession {
	md := payments.BookingFacts{
		PackageID:        "dec-2026",
		PackageName:      "December Retreat",
		Spots:            models.Spots{Dual: 2, Triple: 1},
		ParticipantNames: []string{"Ana Diaz", "Luis Diaz", "Eva Diaz"},
		Buyer:            models.BuyerInfo{FirstName: "Ana", LastName: "Diaz", Email: "meta@example.com", Phone: "+1 555"},
		PaymentMethod:    models.PaymentCard,
		ChargeTotal:      231555,
		PackageTotal:     1235000,
		Deposit:          225000,
		ProcessingFee:    6555,
		Remaining:        1010000,
	}.Metadata()
	return &stripe.CheckoutSession{
		ID:            "cs_test_1",
		CustomerEmail: "ana@example.com",
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_1"},
		Metadata:      md,
	}
}

func newPaymentEventService(store *mockBookingStore, pub *recordingPublisher) *PaymentEventService {
	svc := NewPaymentEventService(store, pub, nopLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestHandleCheckoutCompleted(t *testing.T) {
	ctx := context.Background()
	store := new(mockBookingStore)
	pub := &recordingPublisher{}
	svc := newPaymentEventService(store, pub)

	var saved *models.BookingRecord
	store.On("SaveBooking", ctx, mock.AnythingOfType("*models.BookingRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.BookingRecord) }).
		Return(true, nil).Once()

	require.NoError(t, svc.HandleCheckoutCompleted(ctx, completedSession()))
	store.AssertExpectations(t)

	require.NotNil(t, saved)
	assert.Equal(t, "cs_test_1", saved.SessionID)
	assert.Equal(t, "pi_test_1", saved.PaymentIntentID)
	assert.Equal(t, "ana@example.com", saved.BuyerInfo.Email)
	assert.Equal(t, int64(1235000), saved.TotalAmount)
	assert.Equal(t, int64(231555), saved.ChargedAmount)
	assert.Equal(t, testNow, saved.CreatedAt)
	assert.Equal(t, []string{events.EventBookingPaid}, pub.types())

	var published models.BookingRecord
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &published))
	assert.Equal(t, "cs_test_1", published.SessionID)
}

func TestHandleCheckoutCompletedDuplicate(t *testing.T) {
	ctx := context.Background()
	store := new(mockBookingStore)
	pub := &recordingPublisher{}
	svc := newPaymentEventService(store, pub)

	store.On("SaveBooking", ctx, mock.Anything).Return(false, nil).Once()
	require.NoError(t, svc.HandleCheckoutCompleted(ctx, completedSession()))
	assert.Empty(t, pub.types())
}

func TestHandleCheckoutCompletedStoreError(t *testing.T) {
	ctx := context.Background()
	store := new(mockBookingStore)
	svc := newPaymentEventService(store, &recordingPublisher{})

	store.On("SaveBooking", ctx, mock.Anything).Return(false, errors.New("disk full")).Once()
	assert.Error(t, svc.HandleCheckoutCompleted(ctx, completedSession()))
}

func TestHandleCheckoutCompletedForeignSession(t *testing.T) {
	store := new(mockBookingStore)
	pub := &recordingPublisher{}
	svc := newPaymentEventService(store, pub)

	err := svc.HandleCheckoutCompleted(context.Background(), &stripe.CheckoutSession{ID: "cs_other"})
	require.NoError(t, err)
	store.AssertNotCalled(t, "SaveBooking", mock.Anything, mock.Anything)
	assert.Empty(t, pub.types())
}

func TestHandlePaymentIntentEvents(t *testing.T) {
	ctx := context.Background()
	store := new(mockBookingStore)
	pub := &recordingPublisher{}
	svc := newPaymentEventService(store, pub)

	booking := &models.BookingRecord{SessionID: "cs_test_1", PaymentStatus: models.PaymentStatusDepositPaid}
	store.On("UpdatePaymentStatusByIntent", ctx, "pi_ok", models.PaymentStatusDepositPaid).Return(booking, nil).Once()
	store.On("UpdatePaymentStatusByIntent", ctx, "pi_bad", models.PaymentStatusPaymentFailed).
		Return(nil, database.ErrBookingNotFound).Once()

	require.NoError(t, svc.HandlePaymentSucceeded(ctx, &stripe.PaymentIntent{ID: "pi_ok", Amount: 231555}))
	require.NoError(t, svc.HandlePaymentFailed(ctx, &stripe.PaymentIntent{
		ID:               "pi_bad",
		Amount:           231555,
		LastPaymentError: &stripe.Error{Msg: "Your card was declined."},
	}))
	store.AssertExpectations(t)

	assert.Equal(t, []string{events.EventPaymentSucceeded, events.EventPaymentFailed}, pub.types())

	var ok, failed events.PaymentEventPayload
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &ok))
	require.NoError(t, json.Unmarshal(pub.events[1].Payload, &failed))
	require.NotNil(t, ok.Booking)
	assert.Equal(t, "cs_test_1", ok.Booking.SessionID)
	assert.Nil(t, failed.Booking)
	assert.Equal(t, "Your card was declined.", failed.FailureMessage)
	assert.Equal(t, models.PaymentStatusPaymentFailed, failed.Status)
}

func TestHandlePaymentIntentStoreError(t *testing.T) {
	ctx := context.Background()
	store := new(mockBookingStore)
	pub := &recordingPublisher{}
	svc := newPaymentEventService(store, pub)

	store.On("UpdatePaymentStatusByIntent", ctx, "pi_1", models.PaymentStatusDepositPaid).
		Return(nil, errors.New("database is locked")).Once()
	assert.Error(t, svc.HandlePaymentSucceeded(ctx, &stripe.PaymentIntent{ID: "pi_1"}))
	assert.Empty(t, pub.types())
}

func TestHandleUnrecognized(t *testing.T) {
	svc := newPaymentEventService(new(mockBookingStore), &recordingPublisher{})
	assert.NoError(t, svc.HandleUnrecognized(context.Background(), stripe.Event{ID: "evt_1", Type: "customer.created"}))
}

func TestHandleCheckoutCompletedChargedAmountFromSession(t *testing.T) {
	ctx := context.Background()
	store := new(mockBookingStore)
	svc := newPaymentEventService(store, &recordingPublisher{})

	var saved *models.BookingRecord
	store.On("SaveBooking", ctx, mock.AnythingOfType("*models.BookingRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.BookingRecord) }).
		Return(true, nil).Once()

	session := completedSession()
	session.AmountTotal = 231000
	require.NoError(t, svc.HandleCheckoutCompleted(ctx, session))

	require.NotNil(t, saved)
	assert.Equal(t, int64(1235000), saved.TotalAmount)
	assert.Equal(t, int64(231000), saved.ChargedAmount)
}
