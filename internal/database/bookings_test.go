package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbooking/internal/models"
)

func sampleBooking() *models.BookingRecord {
	return &models.BookingRecord{
		SessionID:       "cs_test_123",
		PaymentIntentID: "pi_test_123",
		PackageID:       "december-2026",
		PackageName:     "December Umrah",
		Spots:           models.Spots{Dual: 2, Triple: 1},
		BuyerInfo: models.BuyerInfo{
			FirstName: "Omar",
			LastName:  "Yusuf",
			Email:     "omar@example.com",
			Phone:     "555-000-1111",
		},
		Participants:     []string{"Omar Yusuf", "Amina Yusuf", "Bilal Yusuf"},
		PaymentStatus:    models.PaymentStatusDepositPaid,
		PaymentType:      models.PaymentTypeDepositOnly,
		PaymentMethod:    models.PaymentCard,
		TotalAmount:      1235000,
		ChargedAmount:    231555,
		DepositAmount:    225000,
		ProcessingFee:    6555,
		RemainingAmount:  1010000,
		InstallmentDates: []string{"2027-01-01", "2027-02-01", "2027-03-01"},
	}
}

func TestSaveAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	inserted, err := db.SaveBooking(ctx, sampleBooking())
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := db.GetBooking(ctx, "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, "pi_test_123", got.PaymentIntentID)
	assert.Equal(t, models.Spots{Dual: 2, Triple: 1}, got.Spots)
	assert.Equal(t, []string{"Omar Yusuf", "Amina Yusuf", "Bilal Yusuf"}, got.Participants)
	assert.Equal(t, int64(1010000), got.RemainingAmount)
	assert.Equal(t, int64(1235000), got.TotalAmount)
	assert.Equal(t, int64(231555), got.ChargedAmount)
	assert.Equal(t, models.PaymentCard, got.PaymentMethod)
	assert.Len(t, got.InstallmentDates, 3)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSaveBooking_DuplicateSessionIgnored(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.SaveBooking(ctx, sampleBooking())
	require.NoError(t, err)

	dup := sampleBooking()
	dup.PackageName = "changed"
	inserted, err := db.SaveBooking(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := db.GetBooking(ctx, dup.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "December Umrah", got.PackageName)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBooking(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestUpdatePaymentStatusByIntent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.SaveBooking(ctx, sampleBooking())
	require.NoError(t, err)

	updated, err := db.UpdatePaymentStatusByIntent(ctx, "pi_test_123", models.PaymentStatusPaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaymentFailed, updated.PaymentStatus)

	_, err = db.UpdatePaymentStatusByIntent(ctx, "pi_unknown", models.PaymentStatusDepositPaid)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = db.UpdatePaymentStatusByIntent(ctx, "", models.PaymentStatusDepositPaid)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := sampleBooking()
	first.CreatedAt = time.Now().Add(-time.Hour)
	second := sampleBooking()
	second.SessionID = "cs_test_456"
	second.PaymentIntentID = ""
	second.Participants = nil

	_, err := db.SaveBooking(ctx, first)
	require.NoError(t, err)
	_, err = db.SaveBooking(ctx, second)
	require.NoError(t, err)

	list, err := db.ListBookings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cs_test_456", list[0].SessionID)
	assert.Empty(t, list[0].Participants)
}
