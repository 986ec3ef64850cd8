// Package gateway bridges to the external payment processor. Two
// implementations exist: a live HTTP client and a deterministic local mock.
// Which one runs is decided at composition time from configuration; the
// recording path never branches on the mode.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRequest describes a checkout session to open for one invoice.
type OrderRequest struct {
	Receipt     string          // invoice number, echoed back by the gateway
	Amount      decimal.Decimal // rupees, two decimal places
	PayerName   string
	Description string
}

// OrderHandle is the gateway-side order returned to the client for checkout.
type OrderHandle struct {
	ProviderOrderID string            `json:"provider_order_id"`
	AmountPaise     int64             `json:"amount_paise"`
	Currency        string            `json:"currency"`
	Prefill         map[string]string `json:"prefill,omitempty"`
	Mock            bool              `json:"mock,omitempty"`
}

// PaymentGateway is the capability the fee service composes against.
//
// VerifySignature is the subsystem's sole security-critical check: it is the
// only proof that a callback genuinely originated from the gateway. It must
// never panic or error; any mismatch or malformed input returns false, and
// callers must reject unverified payments explicitly.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error)
	VerifySignature(providerOrderID, providerPaymentID, signature string) bool
}
