package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"tourbooking/internal/config"
	"tourbooking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, env.db.Close())
	resp = env.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPackages(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodGet, "/api/packages", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Packages []models.PackageOffering `json:"packages"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Packages, 2)
	assert.Equal(t, "dec-2026", body.Packages[0].ID)
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodPost, "/api/quote", quoteRequest{
		PackageID:     "dec-2026",
		Spots:         models.Spots{Dual: 2, Triple: 1},
		PaymentMethod: models.PaymentCard,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var q struct {
		TotalPackagePrice int64 `json:"totalPackagePrice"`
		TotalDeposit      int64 `json:"totalDeposit"`
		ProcessingFee     int64 `json:"processingFee"`
		TotalDueToday     int64 `json:"totalDueToday"`
		RemainingBalance  int64 `json:"remainingBalance"`
		Installments      []struct {
			Amount int64 `json:"amount"`
		} `json:"installments"`
	}
	decodeBody(t, resp, &q)
	assert.Equal(t, int64(1235000), q.TotalPackagePrice)
	assert.Equal(t, int64(225000), q.TotalDeposit)
	assert.Equal(t, int64(6555), q.ProcessingFee)
	assert.Equal(t, int64(231555), q.TotalDueToday)
	assert.Equal(t, int64(1010000), q.RemainingBalance)
	require.Len(t, q.Installments, 3)
	assert.Equal(t, q.RemainingBalance, q.Installments[0].Amount+q.Installments[1].Amount+q.Installments[2].Amount)
}

func TestQuoteErrors(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodPost, "/api/quote", quoteRequest{PackageID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/quote", []byte("{not json"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/quote", quoteRequest{PackageID: "dec-2026", PaymentMethod: "cash"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimitOnPublicPosts(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 1}})
	body := quoteRequest{PackageID: "dec-2026", Spots: models.Spots{Dual: 1}}

	resp := env.do(t, http.MethodPost, "/api/quote", body, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/quote", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// GETs are not throttled
	resp = env.do(t, http.MethodGet, "/api/packages", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInquiries(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	sub := models.InquirySubmission{
		PackageID:              "aug-2027",
		PackageName:            "August Journey",
		FirstName:              "Ana",
		LastName:               "Diaz",
		Email:                  "ana@example.com",
		Phone:                  "+1 555 0100",
		NumberOfPeople:         "2",
		PreferredContactMethod: "email",
		Message:                "Is there a single room option?",
	}
	resp := env.do(t, http.MethodPost, "/api/inquiries", sub, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Success   bool   `json:"success"`
		InquiryID string `json:"inquiryId"`
		Message   string `json:"message"`
	}
	decodeBody(t, resp, &created)
	assert.True(t, created.Success)
	assert.True(t, strings.HasPrefix(created.InquiryID, "inq_"))
	assert.Equal(t, "Inquiry submitted successfully", created.Message)

	entries, err := os.ReadDir(env.inquiryDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "inquiry_Ana_Diaz_"))

	resp = env.do(t, http.MethodGet, "/api/inquiries", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Inquiries []models.InquiryRecord `json:"inquiries"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Inquiries, 1)
	assert.Equal(t, created.InquiryID, list.Inquiries[0].ID)
	assert.Equal(t, models.InquiryStatusNew, list.Inquiries[0].Inquiry.Status)
}

func TestInquiryMissingField(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodPost, "/api/inquiries", models.InquirySubmission{FirstName: "Ana"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "lastName")
}

func TestInquiryListEmpty(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodGet, "/api/inquiries", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"inquiries":[]}`, string(raw))
}

func TestOperatorAuth(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "ops-key", Extra: "ops-extra", Name: "ops", Permissions: []string{permReadInquiries}},
				{Key: "admin-key", Extra: "admin-extra", Name: "admin"},
			},
		},
	}
	env := newTestEnv(t, cfg)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
	}{
		{"MissingHeaders", "/api/inquiries", nil, http.StatusUnauthorized},
		{"UnknownKey", "/api/inquiries", map[string]string{"x-api-key": "nope", "x-api-extra": "ops-extra"}, http.StatusUnauthorized},
		{"WrongExtra", "/api/inquiries", map[string]string{"x-api-key": "ops-key", "x-api-extra": "bad"}, http.StatusUnauthorized},
		{"Allowed", "/api/inquiries", map[string]string{"x-api-key": "ops-key", "x-api-extra": "ops-extra"}, http.StatusOK},
		{"PermissionDenied", "/api/bookings/cs_missing", map[string]string{"x-api-key": "ops-key", "x-api-extra": "ops-extra"}, http.StatusForbidden},
		{"NoPermissionsMeansAll", "/api/bookings/cs_missing", map[string]string{"x-api-key": "admin-key", "x-api-extra": "admin-extra"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, tt.path, nil, tt.headers)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	// public endpoints stay open
	resp := env.do(t, http.MethodGet, "/api/packages", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportInquiries(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodPost, "/api/inquiries", models.InquirySubmission{
		FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com", Phone: "1",
		NumberOfPeople: "2", PreferredContactMethod: "email", Message: "hi",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/inquiries/export", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inquiries_")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// xlsx is a zip container
	assert.True(t, strings.HasPrefix(string(raw), "PK"))
}

func TestCreateCheckout(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	req := models.CheckoutRequest{
		PackageName:   "December Retreat",
		PackageID:     "dec-2026",
		Spots:         models.Spots{Dual: 1},
		BuyerInfo:     buyer(),
		Participants:  []models.Participant{adult("Ana")},
		TotalAmount:   1,
		PaymentMethod: models.PaymentCard,
	}
	resp := env.do(t, http.MethodPost, "/api/stripe/create-checkout", req, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.CheckoutResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.Equal(t, "https://checkout.example/cs_test_1", result.URL)

	sessions := env.gateway.recorded()
	require.Len(t, sessions, 1)
	var charged int64
	for _, li := range sessions[0].LineItems {
		charged += li.UnitAmount * li.Quantity
	}
	// 750 deposit + 2.9% + 30c; the client's totalAmount is ignored
	assert.Equal(t, int64(75000+2205), charged)
}

func TestCreateCheckoutErrors(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})
	valid := models.CheckoutRequest{
		PackageID:     "dec-2026",
		Spots:         models.Spots{Dual: 1},
		BuyerInfo:     buyer(),
		PaymentMethod: models.PaymentCard,
	}

	badEmail := valid
	badEmail.BuyerInfo.Email = "not-an-email"
	resp := env.do(t, http.MethodPost, "/api/stripe/create-checkout", badEmail, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "Valid email address is required", body["error"])

	inquiryOnly := valid
	inquiryOnly.PackageID = "aug-2027"
	resp = env.do(t, http.MethodPost, "/api/stripe/create-checkout", inquiryOnly, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.gateway.set(true, errors.New("card network down"))
	resp = env.do(t, http.MethodPost, "/api/stripe/create-checkout", valid, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "Failed to create checkout session")
	assert.NotContains(t, body["error"], "card network down")

	env.gateway.set(false, nil)
	resp = env.do(t, http.MethodPost, "/api/stripe/create-checkout", valid, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.Equal(t, "Stripe is not properly configured", body["error"])
}

func TestCreateIntent(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp := env.do(t, http.MethodPost, "/api/payments/create-intent", intentRequest{Amount: 5000}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "pi_test_secret_1", body["clientSecret"])

	resp = env.do(t, http.MethodPost, "/api/payments/create-intent", intentRequest{Amount: 0}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
