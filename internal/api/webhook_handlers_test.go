package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"tourbooking/internal/config"
	"tourbooking/internal/database"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postWebhook(t *testing.T, env *testEnv, path string, payload []byte, signature string) *http.Response {
	t.Helper()
	return env.do(t, http.MethodPost, path, payload, map[string]string{payments.SignatureHeader: signature})
}

func TestWebhookRecordsBooking(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	payload := checkoutCompletedEvent(t, "evt_1")

	resp := postWebhook(t, env, "/api/stripe/webhook", payload, signPayload(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"received":true}`, string(raw))

	resp = env.do(t, http.MethodGet, "/api/bookings/cs_test_1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec models.BookingRecord
	decodeBody(t, resp, &rec)
	assert.Equal(t, "dec-2026", rec.PackageID)
	assert.Equal(t, "pi_test_1", rec.PaymentIntentID)
	assert.Equal(t, models.PaymentStatusDepositPaid, rec.PaymentStatus)
	assert.Equal(t, int64(1235000), rec.TotalAmount)
	assert.Equal(t, int64(225000), rec.DepositAmount)
	assert.Equal(t, []string{"Ana Diaz", "Luis Diaz", "Eva Diaz"}, rec.Participants)

	resp = env.do(t, http.MethodGet, "/api/bookings/cs_test_1/receipt.pdf", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestWebhookDuplicateDeliveryAcknowledged(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	payload := checkoutCompletedEvent(t, "evt_dup")

	for i := 0; i < 2; i++ {
		resp := postWebhook(t, env, "/api/payments/webhook", payload, signPayload(payload))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	rows, err := env.db.ListBookings(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWebhookAbandonedClaimRedelivered(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	ctx := context.Background()
	payload := checkoutCompletedEvent(t, "evt_crashed")

	claimed, err := env.db.ClaimEvent(ctx, "evt_crashed", "checkout.session.completed")
	require.NoError(t, err)
	require.True(t, claimed)
	_, err = env.db.ExecContext(ctx, `UPDATE webhook_events SET received_at = ? WHERE event_id = ?`,
		time.Now().UTC().Add(-2*database.EventClaimLease), "evt_crashed")
	require.NoError(t, err)

	resp := postWebhook(t, env, "/api/stripe/webhook", payload, signPayload(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec, err := env.db.GetBooking(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDepositPaid, rec.PaymentStatus)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	payload := checkoutCompletedEvent(t, "evt_bad")

	tests := []struct {
		name      string
		body      []byte
		signature string
	}{
		{"Missing", payload, ""},
		{"Garbage", payload, "t=1,v1=deadbeef"},
		{"Tampered", []byte(strings.Replace(string(payload), "dec-2026", "vip-2026", 1)), signPayload(payload)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postWebhook(t, env, "/api/stripe/webhook", tt.body, tt.signature)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			decodeBody(t, resp, &body)
			assert.Equal(t, "Invalid signature", body["error"])
		})
	}

	resp := env.do(t, http.MethodGet, "/api/bookings/cs_test_1", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookIgnoresUnrecognizedEvents(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	payload := []byte(`{"id":"evt_other","object":"event","type":"customer.created","api_version":"2020-01-01","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	resp := postWebhook(t, env, "/api/stripe/webhook", payload, signPayload(payload))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookHandlerFailure(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	payload := checkoutCompletedEvent(t, "evt_fail")
	require.NoError(t, env.db.Close())

	resp := postWebhook(t, env, "/api/stripe/webhook", payload, signPayload(payload))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "Webhook processing failed", body["error"])
}

func TestBookingNotFound(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodGet, "/api/bookings/cs_unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/bookings/cs_unknown/receipt.pdf", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
