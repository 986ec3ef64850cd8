package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment statuses.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment is an immutable record of a money-movement event. The unique index
// on tenant + ProviderPaymentID is what makes recording idempotent: a
// concurrent duplicate insert hits the constraint and is treated as already
// recorded. Scoping it per tenant keeps two schools whose gateways reuse a
// payment id from ever touching each other's rows.
type Payment struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_tenant_provider,priority:1" json:"tenant_id"`
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status            string          `gorm:"index" json:"status"`
	ReceiptNumber     string          `gorm:"not null;uniqueIndex" json:"receipt_number"`
	ProviderPaymentID string          `gorm:"not null;uniqueIndex:idx_payments_tenant_provider,priority:2" json:"provider_payment_id"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
