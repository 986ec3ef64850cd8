// Package fees owns the fee invoicing and payment recording flow: invoice
// creation and cancellation, gateway checkout orders, and the idempotent
// conversion of verified gateway callbacks into Payments and invoice
// credits.
package fees

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/audit"
	"school-fees-backend/internal/gateway"
	"school-fees-backend/internal/models"
	"school-fees-backend/internal/money"
	"school-fees-backend/internal/notify"
	"school-fees-backend/internal/repository"
)

type FeeService struct {
	invoiceRepo *repository.InvoiceRepository
	orderRepo   *repository.PaymentOrderRepository
	paymentRepo *repository.PaymentRepository
	gw          gateway.PaymentGateway
	db          *gorm.DB
	audit       audit.Recorder
	notify      notify.Notifier
	log         zerolog.Logger
}

func NewFeeService(
	invoiceRepo *repository.InvoiceRepository,
	orderRepo *repository.PaymentOrderRepository,
	paymentRepo *repository.PaymentRepository,
	gw gateway.PaymentGateway,
	auditRec audit.Recorder,
	notifier notify.Notifier,
	log zerolog.Logger,
) *FeeService {
	return &FeeService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gw:          gw,
		db:          invoiceRepo.DB(),
		audit:       auditRec,
		notify:      notifier,
		log:         log,
	}
}

// CreateInvoice assesses a fee against a student.
func (s *FeeService) CreateInvoice(ctx context.Context, tenantID, studentID uuid.UUID, amount decimal.Decimal, dueDate time.Time) (*models.Invoice, error) {
	if err := money.Validate(amount); err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &models.Invoice{
		ID:            uuid.New(),
		TenantID:      tenantID,
		StudentID:     studentID,
		InvoiceNumber: numberWithPrefix("INV"),
		Amount:        amount,
		PaidAmount:    decimal.Zero,
		Status:        models.DeriveInvoiceStatus(amount, decimal.Zero, dueDate, now),
		DueDate:       dueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, s.storeErr(err, "create invoice")
	}

	s.audit.Record(ctx, tenantID, "system", "invoice.created", "invoice", inv.ID.String(), map[string]interface{}{
		"invoice_number": inv.InvoiceNumber,
		"amount":         inv.Amount.StringFixed(2),
	})
	return inv, nil
}

// CancelInvoice closes an unpaid invoice. Paid or already-cancelled
// invoices are immutable.
func (s *FeeService) CancelInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoiceRepo.Cancel(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, s.passOrStoreErr(err, "cancel invoice")
	}
	s.audit.Record(ctx, tenantID, "system", "invoice.cancelled", "invoice", inv.ID.String(), nil)
	return inv, nil
}

// GetInvoice returns a single tenant-scoped invoice.
func (s *FeeService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoiceRepo.GetForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, s.passOrStoreErr(err, "get invoice")
	}
	return inv, nil
}

// ListStudentInvoices returns a student's invoices.
func (s *FeeService) ListStudentInvoices(ctx context.Context, tenantID, studentID uuid.UUID) ([]models.Invoice, error) {
	invoices, err := s.invoiceRepo.ListForStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, s.storeErr(err, "list student invoices")
	}
	return invoices, nil
}

// CreatePaymentOrder opens a gateway checkout session for an invoice. A nil
// amount means the full outstanding remainder; an explicit amount allows
// partial payment but may not exceed the remainder.
func (s *FeeService) CreatePaymentOrder(ctx context.Context, tenantID, invoiceID uuid.UUID, payerName, description string, amount *decimal.Decimal) (*gateway.OrderHandle, error) {
	inv, err := s.invoiceRepo.GetForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, s.passOrStoreErr(err, "load invoice for order")
	}
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		return nil, apperr.ErrInvoiceNotPayable
	}

	pay := inv.Outstanding()
	if amount != nil {
		if err := money.Validate(*amount); err != nil {
			return nil, err
		}
		if amount.GreaterThan(pay) {
			return nil, apperr.ErrOverpayment
		}
		pay = *amount
	}

	handle, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		Receipt:     inv.InvoiceNumber,
		Amount:      pay,
		PayerName:   payerName,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	notes, _ := json.Marshal(map[string]string{
		"payer_name":  payerName,
		"description": description,
	})
	now := time.Now()
	order := &models.PaymentOrder{
		ID:              uuid.New(),
		TenantID:        tenantID,
		InvoiceID:       inv.ID,
		StudentID:       inv.StudentID,
		ProviderOrderID: handle.ProviderOrderID,
		Amount:          pay,
		Status:          models.OrderStatusCreated,
		Notes:           datatypes.JSON(notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, s.storeErr(err, "persist payment order")
	}

	s.audit.Record(ctx, tenantID, "system", "payment_order.created", "payment_order", order.ID.String(), map[string]interface{}{
		"provider_order_id": handle.ProviderOrderID,
		"amount":            pay.StringFixed(2),
	})
	return handle, nil
}

// VerifyCallback checks the gateway's cryptographic proof that a callback is
// genuine. Callers must reject the callback when this returns false; the
// recorder assumes verification already happened.
func (s *FeeService) VerifyCallback(providerOrderID, providerPaymentID, signature string) bool {
	return s.gw.VerifySignature(providerOrderID, providerPaymentID, signature)
}

// RecordPayment converts a verified gateway callback into a COMPLETED
// Payment, credits the invoice, and marks the order PAID — all in one
// transaction. Recording is idempotent on the provider payment id: a
// duplicate callback returns the prior Payment without crediting again, and
// a concurrent duplicate loses the unique-index race and does the same.
// Any processing failure leaves the invoice untouched and persists a FAILED
// Payment so the discrepancy stays traceable.
func (s *FeeService) RecordPayment(ctx context.Context, tenantID uuid.UUID, providerOrderID, providerPaymentID string, amount decimal.Decimal) (*models.Payment, error) {
	if err := money.Validate(amount); err != nil {
		return nil, err
	}

	existing, err := s.paymentRepo.FindByProviderPaymentID(ctx, tenantID, providerPaymentID)
	if err != nil {
		return nil, s.storeErr(err, "lookup prior payment")
	}
	if existing != nil && existing.Status == models.PaymentStatusCompleted {
		return existing, nil
	}

	order, err := s.orderRepo.FindByProviderOrderID(ctx, tenantID, providerOrderID)
	if err != nil {
		return nil, s.passOrStoreErr(err, "resolve payment order")
	}

	now := time.Now()
	payment := &models.Payment{
		ID:                uuid.New(),
		TenantID:          tenantID,
		InvoiceID:         order.InvoiceID,
		Amount:            amount,
		Status:            models.PaymentStatusCompleted,
		ReceiptNumber:     numberWithPrefix("RCP"),
		ProviderPaymentID: providerPaymentID,
		PaidAt:            &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var result *models.Payment
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.paymentRepo.InsertIfAbsent(tx, payment)
		if err != nil {
			return err
		}
		if !created {
			prior, err := s.paymentRepo.LockByProviderPaymentID(tx, tenantID, providerPaymentID)
			if err != nil {
				return err
			}
			if prior.Status == models.PaymentStatusCompleted {
				result = prior
				return nil
			}
			// earlier FAILED attempt for the same payment id: complete it
			// now, with the amount of this verified callback
			if err := s.paymentRepo.MarkCompleted(tx, prior.ID, amount, now); err != nil {
				return err
			}
			prior.Status = models.PaymentStatusCompleted
			prior.Amount = amount
			prior.ErrorMessage = ""
			prior.PaidAt = &now
			payment = prior
		}
		if _, err := s.invoiceRepo.ApplyPayment(tx, tenantID, order.InvoiceID, amount, now); err != nil {
			return err
		}
		if err := s.orderRepo.MarkStatus(tx, order.ID, models.OrderStatusPaid); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if txErr != nil {
		s.persistFailure(ctx, tenantID, order.InvoiceID, providerPaymentID, amount, txErr)
		var ae *apperr.Error
		if errors.As(txErr, &ae) {
			if ae == apperr.ErrOverpayment {
				s.log.Error().
					Str("tenant_id", tenantID.String()).
					Str("provider_payment_id", providerPaymentID).
					Str("amount", amount.StringFixed(2)).
					Msg("overpayment attempt rejected")
			}
			return nil, ae
		}
		s.log.Error().Err(txErr).
			Str("provider_payment_id", providerPaymentID).
			Msg("payment recording failed")
		return nil, apperr.ErrStoreUnavailable
	}

	s.audit.Record(ctx, tenantID, "gateway", "payment.recorded", "payment", result.ID.String(), map[string]interface{}{
		"provider_payment_id": providerPaymentID,
		"receipt_number":      result.ReceiptNumber,
		"amount":              result.Amount.StringFixed(2),
	})
	s.notify.Notify(tenantID, notify.Event{
		Type:      "payment.completed",
		InvoiceID: order.InvoiceID,
		StudentID: order.StudentID,
		Detail:    "receipt " + result.ReceiptNumber,
	})
	return result, nil
}

// RecordGatewayFailure persists a FAILED payment for a gateway-reported
// failed attempt and marks the order FAILED. The invoice is untouched.
func (s *FeeService) RecordGatewayFailure(ctx context.Context, tenantID uuid.UUID, providerOrderID, providerPaymentID, reason string, amount decimal.Decimal) (*models.Payment, error) {
	order, err := s.orderRepo.FindByProviderOrderID(ctx, tenantID, providerOrderID)
	if err != nil {
		return nil, s.passOrStoreErr(err, "resolve payment order")
	}

	now := time.Now()
	payment := &models.Payment{
		ID:                uuid.New(),
		TenantID:          tenantID,
		InvoiceID:         order.InvoiceID,
		Amount:            amount,
		Status:            models.PaymentStatusFailed,
		ReceiptNumber:     numberWithPrefix("RCP"),
		ProviderPaymentID: providerPaymentID,
		ErrorMessage:      reason,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.paymentRepo.RecordFailure(ctx, payment); err != nil {
		return nil, s.storeErr(err, "record gateway failure")
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.MarkStatus(tx, order.ID, models.OrderStatusFailed)
	}); err != nil {
		s.log.Error().Err(err).Str("provider_order_id", providerOrderID).Msg("failed to mark order FAILED")
	}

	s.audit.Record(ctx, tenantID, "gateway", "payment.failed", "payment", payment.ID.String(), map[string]interface{}{
		"provider_payment_id": providerPaymentID,
		"reason":              reason,
	})
	return payment, nil
}

// persistFailure writes the FAILED ledger row after a rolled-back recording
// attempt. Best-effort: a second failure here is logged, not returned.
func (s *FeeService) persistFailure(ctx context.Context, tenantID, invoiceID uuid.UUID, providerPaymentID string, amount decimal.Decimal, cause error) {
	msg := "payment recording failed"
	var ae *apperr.Error
	if errors.As(cause, &ae) {
		msg = ae.Message
	}
	now := time.Now()
	failed := &models.Payment{
		ID:                uuid.New(),
		TenantID:          tenantID,
		InvoiceID:         invoiceID,
		Amount:            amount,
		Status:            models.PaymentStatusFailed,
		ReceiptNumber:     numberWithPrefix("RCP"),
		ProviderPaymentID: providerPaymentID,
		ErrorMessage:      msg,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.paymentRepo.RecordFailure(ctx, failed); err != nil {
		s.log.Error().Err(err).
			Str("provider_payment_id", providerPaymentID).
			Msg("could not persist FAILED payment")
	}
}

func (s *FeeService) storeErr(err error, op string) error {
	s.log.Error().Err(err).Str("op", op).Msg("store error")
	return apperr.ErrStoreUnavailable
}

// passOrStoreErr lets typed domain errors through and converts everything
// else to StoreUnavailable.
func (s *FeeService) passOrStoreErr(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return s.storeErr(err, op)
}

// numberWithPrefix generates document numbers like RCP-20250117-4F09A1.
// Uniqueness is backed by the store's unique index.
func numberWithPrefix(prefix string) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		time.Now().Format("20060102"),
		strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6]),
	)
}
