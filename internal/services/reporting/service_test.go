package reporting_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/audit"
	"school-fees-backend/internal/gateway"
	"school-fees-backend/internal/models"
	"school-fees-backend/internal/notify"
	"school-fees-backend/internal/repository"
	"school-fees-backend/internal/services/fees"
	"school-fees-backend/internal/services/reporting"
)

func setupReports(t *testing.T) (*reporting.ReportService, *fees.FeeService) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Invoice{}, &models.PaymentOrder{}, &models.Payment{}, &models.AuditLog{},
	))
	t.Cleanup(func() {
		db.Exec("DELETE FROM payments")
		db.Exec("DELETE FROM payment_orders")
		db.Exec("DELETE FROM audit_logs")
		db.Exec("DELETE FROM invoices")
	})

	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	invoiceRepo := repository.NewInvoiceRepository(db)
	orderRepo := repository.NewPaymentOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	feeSvc := fees.NewFeeService(
		invoiceRepo, orderRepo, paymentRepo,
		gateway.NewMock(),
		audit.NewRecorder(db, log),
		notify.NewLogNotifier(log),
		log,
	)
	return reporting.NewReportService(invoiceRepo, paymentRepo, log), feeSvc
}

func payInFull(t *testing.T, feeSvc *fees.FeeService, tenant uuid.UUID, inv *models.Invoice, paymentID string) {
	t.Helper()
	ctx := context.Background()
	handle, err := feeSvc.CreatePaymentOrder(ctx, tenant, inv.ID, "A Parent", "", nil)
	require.NoError(t, err)
	_, err = feeSvc.RecordPayment(ctx, tenant, handle.ProviderOrderID, paymentID, inv.Outstanding())
	require.NoError(t, err)
}

func TestOutstanding(t *testing.T) {
	reports, feeSvc := setupReports(t)
	tenant := uuid.New()
	ctx := context.Background()
	due := time.Now().Add(24 * time.Hour)

	invA, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("1000.00"), due)
	require.NoError(t, err)
	_, err = feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("2000.00"), due)
	require.NoError(t, err)

	// partially pay the first
	part := decimal.RequireFromString("300.00")
	handle, err := feeSvc.CreatePaymentOrder(ctx, tenant, invA.ID, "A Parent", "", &part)
	require.NoError(t, err)
	_, err = feeSvc.RecordPayment(ctx, tenant, handle.ProviderOrderID, "pay_rep_1", part)
	require.NoError(t, err)

	total, err := reports.Outstanding(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2700.00").Equal(total), "got %s", total)

	// a cancelled invoice drops out
	invC, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("500.00"), due)
	require.NoError(t, err)
	_, err = feeSvc.CancelInvoice(ctx, tenant, invC.ID)
	require.NoError(t, err)

	total, err = reports.Outstanding(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2700.00").Equal(total))
}

func TestOverdueRecomputesStoredStatus(t *testing.T) {
	reports, feeSvc := setupReports(t)
	tenant := uuid.New()
	ctx := context.Background()

	// created before its due date, so stored as PENDING
	inv, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(),
		decimal.RequireFromString("45000.00"), time.Now().Add(50*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)

	time.Sleep(100 * time.Millisecond)

	overdue, err := reports.Overdue(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, inv.ID, overdue[0].ID)
	assert.Equal(t, models.InvoiceStatusOverdue, overdue[0].Status)

	// paying it removes it from the listing
	payInFull(t, feeSvc, tenant, inv, "pay_rep_overdue")
	overdue, err = reports.Overdue(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestCollectedBetween(t *testing.T) {
	reports, feeSvc := setupReports(t)
	tenant := uuid.New()
	ctx := context.Background()
	due := time.Now().Add(24 * time.Hour)

	invA, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("1000.00"), due)
	require.NoError(t, err)
	invB, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("250.50"), due)
	require.NoError(t, err)

	start := time.Now().Add(-time.Minute)
	payInFull(t, feeSvc, tenant, invA, "pay_col_1")
	payInFull(t, feeSvc, tenant, invB, "pay_col_2")
	end := time.Now().Add(time.Minute)

	total, err := reports.CollectedBetween(ctx, tenant, start, end)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(total), "got %s", total)

	// a window before the payments sums to zero
	total, err = reports.CollectedBetween(ctx, tenant, start.Add(-time.Hour), start)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = reports.CollectedBetween(ctx, tenant, end, start)
	assert.ErrorIs(t, err, apperr.ErrInvalidRange)
}

func TestCountsByStatus(t *testing.T) {
	reports, feeSvc := setupReports(t)
	tenant := uuid.New()
	ctx := context.Background()
	due := time.Now().Add(24 * time.Hour)

	_, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("100.00"), due)
	require.NoError(t, err)
	_, err = feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("200.00"), due)
	require.NoError(t, err)
	paid, err := feeSvc.CreateInvoice(ctx, tenant, uuid.New(), decimal.RequireFromString("300.00"), due)
	require.NoError(t, err)
	payInFull(t, feeSvc, tenant, paid, "pay_cnt_1")

	rows, err := reports.CountsByStatus(ctx, tenant)
	require.NoError(t, err)

	byStatus := map[string]repository.StatusCount{}
	for _, row := range rows {
		byStatus[row.Status] = row
	}
	assert.Equal(t, int64(2), byStatus[models.InvoiceStatusPending].Count)
	assert.True(t, decimal.RequireFromString("300.00").Equal(byStatus[models.InvoiceStatusPending].Total))
	assert.Equal(t, int64(1), byStatus[models.InvoiceStatusPaid].Count)
}

func TestPaymentHistory(t *testing.T) {
	reports, feeSvc := setupReports(t)
	tenant := uuid.New()
	ctx := context.Background()
	student := uuid.New()
	due := time.Now().Add(24 * time.Hour)

	inv, err := feeSvc.CreateInvoice(ctx, tenant, student, decimal.RequireFromString("1000.00"), due)
	require.NoError(t, err)

	part := decimal.RequireFromString("400.00")
	h1, err := feeSvc.CreatePaymentOrder(ctx, tenant, inv.ID, "A Parent", "", &part)
	require.NoError(t, err)
	_, err = feeSvc.RecordPayment(ctx, tenant, h1.ProviderOrderID, "pay_hist_1", part)
	require.NoError(t, err)

	h2, err := feeSvc.CreatePaymentOrder(ctx, tenant, inv.ID, "A Parent", "", nil)
	require.NoError(t, err)
	_, err = feeSvc.RecordPayment(ctx, tenant, h2.ProviderOrderID, "pay_hist_2",
		decimal.RequireFromString("600.00"))
	require.NoError(t, err)

	payments, err := reports.PaymentHistory(ctx, tenant, student)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	for _, p := range payments {
		assert.Equal(t, inv.ID, p.InvoiceID)
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	}

	// another student has none
	payments, err = reports.PaymentHistory(ctx, tenant, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestReportsAreTenantScoped(t *testing.T) {
	reports, feeSvc := setupReports(t)
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()

	_, err := feeSvc.CreateInvoice(ctx, tenantA, uuid.New(),
		decimal.RequireFromString("1000.00"), time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	total, err := reports.Outstanding(ctx, tenantB)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	rows, err := reports.CountsByStatus(ctx, tenantB)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
