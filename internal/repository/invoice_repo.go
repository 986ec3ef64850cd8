package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/models"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Expose DB if needed
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// GetForTenant fetches a single invoice scoped to its tenant.
func (r *InvoiceRepository) GetForTenant(ctx context.Context, tenantID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).
		First(&inv, "id = ? AND tenant_id = ?", invoiceID, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ApplyPayment credits the invoice inside the caller's transaction. The row
// is locked for the duration so concurrent credits for the same invoice
// serialize instead of losing updates. Crediting past the invoice amount is
// rejected without touching the row.
func (r *InvoiceRepository) ApplyPayment(tx *gorm.DB, tenantID, invoiceID uuid.UUID, amount decimal.Decimal, now time.Time) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&inv, "id = ? AND tenant_id = ?", invoiceID, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusCancelled {
		return nil, apperr.ErrInvoiceNotFound
	}

	newPaid := inv.PaidAmount.Add(amount)
	if newPaid.GreaterThan(inv.Amount) {
		return nil, apperr.ErrOverpayment
	}

	inv.PaidAmount = newPaid
	inv.Status = models.DeriveInvoiceStatus(inv.Amount, newPaid, inv.DueDate, now)
	inv.UpdatedAt = now

	if err := tx.Model(&models.Invoice{}).
		Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"paid_amount": inv.PaidAmount,
			"status":      inv.Status,
			"updated_at":  now,
		}).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Cancel marks an unpaid invoice CANCELLED. Invoices with any payment
// applied, or already PAID/CANCELLED, are immutable.
func (r *InvoiceRepository) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&inv, "id = ? AND tenant_id = ?", invoiceID, tenantID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrInvoiceNotFound
		}
		if err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled || inv.PaidAmount.IsPositive() {
			return apperr.ErrNotCancellable
		}
		inv.Status = models.InvoiceStatusCancelled
		inv.UpdatedAt = time.Now()
		return tx.Model(&models.Invoice{}).
			Where("id = ?", inv.ID).
			Updates(map[string]interface{}{"status": inv.Status, "updated_at": inv.UpdatedAt}).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Outstanding sums amount - paid_amount over invoices that still owe money.
func (r *InvoiceRepository) Outstanding(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("tenant_id = ? AND status IN ?", tenantID, []string{
			models.InvoiceStatusPending, models.InvoiceStatusPartial, models.InvoiceStatusOverdue,
		}).
		Select("COALESCE(SUM(amount - paid_amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListOverdue returns unpaid invoices past due as of the given time. Status
// is recomputed at read time, so invoices still stored as PENDING/PARTIAL
// come back as OVERDUE without waiting for the periodic marker job.
func (r *InvoiceRepository) ListOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ? AND due_date < ?", tenantID, []string{
			models.InvoiceStatusPending, models.InvoiceStatusPartial, models.InvoiceStatusOverdue,
		}, asOf).
		Order("due_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		invoices[i].Status = models.DeriveInvoiceStatus(invoices[i].Amount, invoices[i].PaidAmount, invoices[i].DueDate, asOf)
	}
	return invoices, nil
}

// ListForStudent returns a student's invoices, newest first.
func (r *InvoiceRepository) ListForStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

type StatusCount struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// CountsByStatus groups invoices by status with counts and amount totals.
func (r *InvoiceRepository) CountsByStatus(ctx context.Context, tenantID uuid.UUID) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("tenant_id = ?", tenantID).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
