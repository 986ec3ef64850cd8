package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"school-fees-backend/internal/apperr"
	"school-fees-backend/internal/models"
	"school-fees-backend/internal/services/fees"
)

type FeeHandler struct {
	svc *fees.FeeService
}

func NewFeeHandler(svc *fees.FeeService) *FeeHandler {
	return &FeeHandler{svc: svc}
}

// tenantID reads the school's tenant from the X-Tenant-ID header. Every
// endpoint is tenant-scoped; there is no ambient default.
func tenantID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-Tenant-ID")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service error codes to HTTP statuses. Unknown errors
// come back as a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch ae {
	case apperr.ErrInvalidAmount, apperr.ErrSignatureInvalid, apperr.ErrInvalidRange:
		status = http.StatusBadRequest
	case apperr.ErrInvoiceNotFound:
		status = http.StatusNotFound
	case apperr.ErrOverpayment, apperr.ErrInvoiceNotPayable, apperr.ErrNotCancellable:
		status = http.StatusConflict
	case apperr.ErrGatewayUnavailable:
		status = http.StatusBadGateway
	case apperr.ErrStoreUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": ae.Message, "code": ae.Code})
}

type createInvoiceRequest struct {
	StudentID string          `json:"student_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	DueDate   time.Time       `json:"due_date" binding:"required"`
}

func (h *FeeHandler) CreateInvoice(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id must be a UUID"})
		return
	}

	inv, err := h.svc.CreateInvoice(c.Request.Context(), tenant, studentID, req.Amount, req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": inv})
}

func (h *FeeHandler) GetInvoice(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice id must be a UUID"})
		return
	}
	inv, err := h.svc.GetInvoice(c.Request.Context(), tenant, invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (h *FeeHandler) CancelInvoice(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice id must be a UUID"})
		return
	}
	inv, err := h.svc.CancelInvoice(c.Request.Context(), tenant, invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

type createOrderRequest struct {
	PayerName   string           `json:"payer_name"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

func (h *FeeHandler) CreatePaymentOrder(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice id must be a UUID"})
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handle, err := h.svc.CreatePaymentOrder(c.Request.Context(), tenant, invoiceID, req.PayerName, req.Description, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": handle})
}

type paymentCallbackRequest struct {
	ProviderOrderID   string          `json:"provider_order_id" binding:"required"`
	ProviderPaymentID string          `json:"provider_payment_id" binding:"required"`
	Signature         string          `json:"signature" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Status            string          `json:"status"`
	ErrorReason       string          `json:"error_reason"`
}

// PaymentCallback receives the gateway's payment result. The signature is
// verified before anything touches the store; a failed verification is
// rejected outright and nothing is recorded.
func (h *FeeHandler) PaymentCallback(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.svc.VerifyCallback(req.ProviderOrderID, req.ProviderPaymentID, req.Signature) {
		respondError(c, apperr.ErrSignatureInvalid)
		return
	}

	if req.Status == "failed" {
		payment, err := h.svc.RecordGatewayFailure(c.Request.Context(), tenant,
			req.ProviderOrderID, req.ProviderPaymentID, req.ErrorReason, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payment": payment})
		return
	}

	payment, err := h.svc.RecordPayment(c.Request.Context(), tenant,
		req.ProviderOrderID, req.ProviderPaymentID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

func (h *FeeHandler) ListStudentInvoices(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student id must be a UUID"})
		return
	}
	invoices, err := h.svc.ListStudentInvoices(c.Request.Context(), tenant, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}
