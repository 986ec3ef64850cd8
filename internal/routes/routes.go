package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"school-fees-backend/internal/audit"
	"school-fees-backend/internal/config"
	"school-fees-backend/internal/gateway"
	handler "school-fees-backend/internal/handlers"
	"school-fees-backend/internal/notify"
	"school-fees-backend/internal/repository"
	"school-fees-backend/internal/services/fees"
	"school-fees-backend/internal/services/reporting"
)

// RegisterRoutes wires repositories, services and handlers onto the router.
// The gateway implementation is chosen here, once, from configuration: mock
// deployments never construct a live client and vice versa.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, log zerolog.Logger) {
	invoiceRepo := repository.NewInvoiceRepository(db)
	orderRepo := repository.NewPaymentOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	var gw gateway.PaymentGateway
	if cfg.Gateway.Mode == config.GatewayModeLive {
		gw = gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.Secret, cfg.Gateway.Timeout, log)
	} else {
		gw = gateway.NewMock()
	}

	auditRec := audit.NewRecorder(db, log)
	notifier := notify.NewLogNotifier(log)

	feeService := fees.NewFeeService(invoiceRepo, orderRepo, paymentRepo, gw, auditRec, notifier, log)
	reportService := reporting.NewReportService(invoiceRepo, paymentRepo, log)

	feeHandler := handler.NewFeeHandler(feeService)
	reportHandler := handler.NewReportHandler(reportService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Invoice lifecycle
	invoices := api.Group("/invoices")
	{
		invoices.POST("", feeHandler.CreateInvoice)
		invoices.GET("/:id", feeHandler.GetInvoice)
		invoices.POST("/:id/cancel", feeHandler.CancelInvoice)
		invoices.POST("/:id/order", feeHandler.CreatePaymentOrder)
	}

	// Gateway callback
	api.POST("/payments/callback", feeHandler.PaymentCallback)

	// Per-student views
	students := api.Group("/students")
	{
		students.GET("/:studentId/invoices", feeHandler.ListStudentInvoices)
		students.GET("/:studentId/payments", reportHandler.StudentPayments)
	}

	// Reconciliation reports
	reports := api.Group("/reports")
	{
		reports.GET("/outstanding", reportHandler.Outstanding)
		reports.GET("/overdue", reportHandler.Overdue)
		reports.GET("/collections", reportHandler.Collections)
		reports.GET("/status-counts", reportHandler.StatusCounts)
	}
}
