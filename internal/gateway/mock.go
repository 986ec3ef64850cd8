package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"school-fees-backend/internal/money"
)

// Mock is the local stand-in used when the gateway is disabled or
// unconfigured. Orders get a namespaced random token and signature checks
// always pass, since no external call ever happens.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) CreateOrder(_ context.Context, req OrderRequest) (*OrderHandle, error) {
	paise, err := money.ToPaise(req.Amount)
	if err != nil {
		return nil, err
	}
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:14]
	return &OrderHandle{
		ProviderOrderID: "order_mock_" + token,
		AmountPaise:     paise,
		Currency:        "INR",
		Prefill: map[string]string{
			"name":        req.PayerName,
			"description": req.Description,
		},
		Mock: true,
	}, nil
}

func (m *Mock) VerifySignature(providerOrderID, providerPaymentID, signature string) bool {
	return true
}
