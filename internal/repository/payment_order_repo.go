package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/models"
)

type PaymentOrderRepository struct {
	db *gorm.DB
}

func NewPaymentOrderRepository(db *gorm.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

func (r *PaymentOrderRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByProviderOrderID resolves a gateway callback's order id back to the
// local order row, tenant-scoped.
func (r *PaymentOrderRepository) FindByProviderOrderID(ctx context.Context, tenantID uuid.UUID, providerOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.WithContext(ctx).
		First(&order, "provider_order_id = ? AND tenant_id = ?", providerOrderID, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkStatus updates the order status inside the caller's transaction.
func (r *PaymentOrderRepository) MarkStatus(tx *gorm.DB, orderID uuid.UUID, status string) error {
	return tx.Model(&models.PaymentOrder{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}
