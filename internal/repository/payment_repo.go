package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-fees-backend/internal/models"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByProviderPaymentID returns the payment recorded for a gateway payment
// id, or nil when none exists.
func (r *PaymentRepository) FindByProviderPaymentID(ctx context.Context, tenantID uuid.UUID, providerPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		First(&p, "provider_payment_id = ? AND tenant_id = ?", providerPaymentID, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertIfAbsent inserts the payment inside the caller's transaction. A
// concurrent duplicate for the same tenant and provider payment id hits the
// unique index and is reported as created=false, which the recorder treats
// as "already recorded" rather than an error.
func (r *PaymentRepository) InsertIfAbsent(tx *gorm.DB, p *models.Payment) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "provider_payment_id"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LockByProviderPaymentID fetches the payment row FOR UPDATE inside the
// caller's transaction.
func (r *PaymentRepository) LockByProviderPaymentID(tx *gorm.DB, tenantID uuid.UUID, providerPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "provider_payment_id = ? AND tenant_id = ?", providerPaymentID, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkCompleted flips an earlier FAILED/PENDING row to COMPLETED inside the
// caller's transaction. The amount is overwritten with the value actually
// credited, so the ledger row never disagrees with the invoice balance when
// a corrected retry carries a different amount than the failed attempt.
func (r *PaymentRepository) MarkCompleted(tx *gorm.DB, paymentID uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	return tx.Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":        models.PaymentStatusCompleted,
			"amount":        amount,
			"error_message": "",
			"paid_at":       paidAt,
			"updated_at":    paidAt,
		}).Error
}

// RecordFailure persists a FAILED payment row so discrepancies stay
// traceable in the ledger. An existing row for the same tenant and payment
// id is updated in place unless it already completed.
func (r *PaymentRepository) RecordFailure(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "provider_payment_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":        models.PaymentStatusFailed,
			"error_message": p.ErrorMessage,
			"updated_at":    time.Now(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "payments", Name: "status"}, Value: models.PaymentStatusCompleted},
		}},
	}).Create(p).Error
}

// CollectedBetween sums COMPLETED payments with paid_at in [from, to).
func (r *PaymentRepository) CollectedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("tenant_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?",
			tenantID, models.PaymentStatusCompleted, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// HistoryForStudent returns a student's payments, newest first, joined
// through their invoices.
func (r *PaymentRepository) HistoryForStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.tenant_id = ? AND invoices.student_id = ?", tenantID, studentID).
		Order("payments.created_at DESC").
		Find(&payments).Error
	return payments, err
}
