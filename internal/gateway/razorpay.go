package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/money"
)

const defaultBaseURL = "https://api.razorpay.com"

// Client talks to the live payment processor over its orders API.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a live gateway client. Timeout bounds every outbound
// call; a zero timeout defaults to 10s.
func NewClient(baseURL, keyID, secret string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type orderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a gateway order for the given amount. The amount is
// converted to paise here; it must already be a valid two-decimal value.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error) {
	paise, err := money.ToPaise(req.Amount)
	if err != nil {
		return nil, err
	}

	payload := orderPayload{
		Amount:   paise,
		Currency: "INR",
		Receipt:  req.Receipt,
		Notes: map[string]string{
			"payer_name":  req.PayerName,
			"description": req.Description,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.ErrGatewayUnavailable
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.ErrGatewayUnavailable
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Error().Err(err).Str("receipt", req.Receipt).Msg("gateway order creation failed")
		return nil, apperr.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Str("receipt", req.Receipt).Msg("gateway rejected order creation")
		return nil, apperr.ErrGatewayUnavailable
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil || order.ID == "" {
		c.log.Error().Err(err).Str("receipt", req.Receipt).Msg("malformed gateway order response")
		return nil, apperr.ErrGatewayUnavailable
	}

	return &OrderHandle{
		ProviderOrderID: order.ID,
		AmountPaise:     paise,
		Currency:        "INR",
		Prefill: map[string]string{
			"name":        req.PayerName,
			"description": req.Description,
		},
	}, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "orderID|paymentID" with the
// shared secret and compares it against the supplied signature in constant
// time. Any mismatch, including malformed input, returns false.
func (c *Client) VerifySignature(providerOrderID, providerPaymentID, signature string) bool {
	if providerOrderID == "" || providerPaymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(providerOrderID + "|" + providerPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
