package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses. Status is always derived from paidAmount and the due
// date; it is never set independently except through cancellation.
const (
	InvoiceStatusPending   = "PENDING"
	InvoiceStatusPartial   = "PARTIAL"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusOverdue   = "OVERDUE"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice is a charge owed by a student, tracked to full or partial payment.
// Invoice numbers are unique per tenant.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_tenant_number,priority:1" json:"tenant_id"`
	StudentID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	InvoiceNumber string          `gorm:"not null;uniqueIndex:idx_invoices_tenant_number,priority:2" json:"invoice_number"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid_amount"`
	Status        string          `gorm:"index" json:"status"`
	DueDate       time.Time       `json:"due_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DeriveInvoiceStatus computes the status of a live (non-cancelled) invoice.
// A fully paid invoice is PAID regardless of the due date; anything with an
// unpaid remainder past the due date is OVERDUE.
func DeriveInvoiceStatus(amount, paid decimal.Decimal, dueDate, now time.Time) string {
	if paid.GreaterThanOrEqual(amount) {
		return InvoiceStatusPaid
	}
	if now.After(dueDate) {
		return InvoiceStatusOverdue
	}
	if paid.IsPositive() {
		return InvoiceStatusPartial
	}
	return InvoiceStatusPending
}

// Outstanding returns the unpaid remainder.
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}
