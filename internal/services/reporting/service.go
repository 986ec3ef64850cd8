// Package reporting exposes the reconciliation read side: outstanding and
// collected totals, overdue listings, and per-student payment history.
package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/models"
	"school-fees-backend/internal/repository"
)

type ReportService struct {
	invoiceRepo *repository.InvoiceRepository
	paymentRepo *repository.PaymentRepository
	log         zerolog.Logger
}

func NewReportService(invoiceRepo *repository.InvoiceRepository, paymentRepo *repository.PaymentRepository, log zerolog.Logger) *ReportService {
	return &ReportService{invoiceRepo: invoiceRepo, paymentRepo: paymentRepo, log: log}
}

// Outstanding returns the total unpaid amount across PENDING, PARTIAL and
// OVERDUE invoices.
func (s *ReportService) Outstanding(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.invoiceRepo.Outstanding(ctx, tenantID)
	if err != nil {
		return decimal.Zero, s.storeErr(err, "outstanding total")
	}
	return total, nil
}

// Overdue lists invoices past due as of now. Statuses come back recomputed,
// so a PENDING invoice whose due date passed an hour ago reads OVERDUE.
func (s *ReportService) Overdue(ctx context.Context, tenantID uuid.UUID) ([]models.Invoice, error) {
	invoices, err := s.invoiceRepo.ListOverdue(ctx, tenantID, time.Now())
	if err != nil {
		return nil, s.storeErr(err, "overdue listing")
	}
	return invoices, nil
}

// CollectedBetween sums completed payments received in [from, to).
func (s *ReportService) CollectedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	if !to.After(from) {
		return decimal.Zero, apperr.ErrInvalidRange
	}
	total, err := s.paymentRepo.CollectedBetween(ctx, tenantID, from, to)
	if err != nil {
		return decimal.Zero, s.storeErr(err, "collections total")
	}
	return total, nil
}

// CountsByStatus breaks invoices down by status with counts and amount totals.
func (s *ReportService) CountsByStatus(ctx context.Context, tenantID uuid.UUID) ([]repository.StatusCount, error) {
	rows, err := s.invoiceRepo.CountsByStatus(ctx, tenantID)
	if err != nil {
		return nil, s.storeErr(err, "status counts")
	}
	return rows, nil
}

// PaymentHistory returns a student's payments, newest first.
func (s *ReportService) PaymentHistory(ctx context.Context, tenantID, studentID uuid.UUID) ([]models.Payment, error) {
	payments, err := s.paymentRepo.HistoryForStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, s.storeErr(err, "payment history")
	}
	return payments, nil
}

func (s *ReportService) storeErr(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	s.log.Error().Err(err).Str("op", op).Msg("store error")
	return apperr.ErrStoreUnavailable
}
