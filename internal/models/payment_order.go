package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentOrder statuses. An order moves to PAID or FAILED only via the
// verified-callback path; EXPIRED is applied by an external expiry job.
const (
	OrderStatusCreated   = "CREATED"
	OrderStatusAttempted = "ATTEMPTED"
	OrderStatusPaid      = "PAID"
	OrderStatusFailed    = "FAILED"
	OrderStatusExpired   = "EXPIRED"
)

// PaymentOrder is a gateway-side checkout session for one attempt to pay an
// Invoice. Many orders may exist per invoice (retries), but at most one may
// ever reach PAID. Orders are never deleted.
type PaymentOrder struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	StudentID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	ProviderOrderID string          `gorm:"not null;uniqueIndex" json:"provider_order_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status          string          `gorm:"index" json:"status"`
	Notes           datatypes.JSON  `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
