package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"school-fees-backend/internal/models"
	"school-fees-backend/internal/services/reporting"
)

type ReportHandler struct {
	svc *reporting.ReportService
}

func NewReportHandler(svc *reporting.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) Outstanding(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	total, err := h.svc.Outstanding(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outstanding": total})
}

func (h *ReportHandler) Overdue(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	invoices, err := h.svc.Overdue(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// Collections expects RFC 3339 "from" and "to" query params; "to" is
// exclusive.
func (h *ReportHandler) Collections(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC 3339 timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an RFC 3339 timestamp"})
		return
	}
	total, err := h.svc.CollectedBetween(c.Request.Context(), tenant, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collected": total, "from": from, "to": to})
}

func (h *ReportHandler) StatusCounts(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	rows, err := h.svc.CountsByStatus(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": rows})
}

func (h *ReportHandler) StudentPayments(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student id must be a UUID"})
		return
	}
	payments, err := h.svc.PaymentHistory(c.Request.Context(), tenant, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
