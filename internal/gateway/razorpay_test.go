package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-fees-backend/internal/apperr"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_webhook_secret_0123456789"
	c := NewClient("", "key_test", secret, 0, testLogger())

	orderID := "order_NXhj4aW1tZqvBc"
	paymentID := "pay_NXhkPqW2uYrwDd"
	good := sign(secret, orderID, paymentID)

	assert.True(t, c.VerifySignature(orderID, paymentID, good))

	// flip one hex digit
	mutated := []byte(good)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	assert.False(t, c.VerifySignature(orderID, paymentID, string(mutated)))

	assert.False(t, c.VerifySignature("order_other", paymentID, good))
	assert.False(t, c.VerifySignature(orderID, "pay_other", good))
	assert.False(t, c.VerifySignature(orderID, paymentID, "not-hex-at-all"))
	assert.False(t, c.VerifySignature("", paymentID, good))
	assert.False(t, c.VerifySignature(orderID, "", good))
	assert.False(t, c.VerifySignature(orderID, paymentID, ""))
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	a := NewClient("", "key_test", "secret_aaaaaaaaaaaaaaaa", 0, testLogger())
	b := NewClient("", "key_test", "secret_bbbbbbbbbbbbbbbb", 0, testLogger())

	sig := sign("secret_aaaaaaaaaaaaaaaa", "order_1", "pay_1")
	assert.True(t, a.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, b.VerifySignature("order_1", "pay_1", sig))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(4500000), payload["amount"])
		assert.Equal(t, "INR", payload["currency"])
		assert.Equal(t, "INV-20250601-AB12CD", payload["receipt"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "order_live_123", "amount": 4500000, "currency": "INR", "status": "created",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_test", "secret_test", time.Second, testLogger())
	handle, err := c.CreateOrder(context.Background(), OrderRequest{
		Receipt:   "INV-20250601-AB12CD",
		Amount:    decimal.RequireFromString("45000.00"),
		PayerName: "A Parent",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_live_123", handle.ProviderOrderID)
	assert.Equal(t, int64(4500000), handle.AmountPaise)
	assert.Equal(t, "INR", handle.Currency)
	assert.False(t, handle.Mock)
}

func TestCreateOrderGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_test", "secret_test", time.Second, testLogger())
	_, err := c.CreateOrder(context.Background(), OrderRequest{
		Receipt: "INV-1", Amount: decimal.RequireFromString("10.00"),
	})
	assert.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
}

func TestCreateOrderRejectsFractionalPaise(t *testing.T) {
	c := NewClient("", "key_test", "secret_test", time.Second, testLogger())
	_, err := c.CreateOrder(context.Background(), OrderRequest{
		Receipt: "INV-1", Amount: decimal.RequireFromString("10.005"),
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
}

func TestMockGateway(t *testing.T) {
	m := NewMock()
	handle, err := m.CreateOrder(context.Background(), OrderRequest{
		Receipt: "INV-1", Amount: decimal.RequireFromString("250.50"),
	})
	require.NoError(t, err)
	assert.True(t, handle.Mock)
	assert.Contains(t, handle.ProviderOrderID, "order_mock_")
	assert.Equal(t, int64(25050), handle.AmountPaise)

	assert.True(t, m.VerifySignature("anything", "at-all", "whatever"))
}
