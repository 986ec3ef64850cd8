package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveInvoiceStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(72 * time.Hour)
	past := now.Add(-72 * time.Hour)

	tests := []struct {
		name    string
		amount  string
		paid    string
		dueDate time.Time
		want    string
	}{
		{name: "unpaid before due date", amount: "1000.00", paid: "0", dueDate: future, want: InvoiceStatusPending},
		{name: "partial before due date", amount: "1000.00", paid: "400.00", dueDate: future, want: InvoiceStatusPartial},
		{name: "fully paid", amount: "1000.00", paid: "1000.00", dueDate: future, want: InvoiceStatusPaid},
		{name: "overpaid still reads paid", amount: "1000.00", paid: "1000.01", dueDate: future, want: InvoiceStatusPaid},
		{name: "unpaid past due date", amount: "1000.00", paid: "0", dueDate: past, want: InvoiceStatusOverdue},
		{name: "partial past due date", amount: "1000.00", paid: "400.00", dueDate: past, want: InvoiceStatusOverdue},
		{name: "paid past due date stays paid", amount: "1000.00", paid: "1000.00", dueDate: past, want: InvoiceStatusPaid},
		{name: "due this instant is not overdue", amount: "1000.00", paid: "0", dueDate: now, want: InvoiceStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveInvoiceStatus(
				decimal.RequireFromString(tt.amount),
				decimal.RequireFromString(tt.paid),
				tt.dueDate, now,
			)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutstanding(t *testing.T) {
	inv := &Invoice{
		Amount:     decimal.RequireFromString("45000.00"),
		PaidAmount: decimal.RequireFromString("15000.00"),
	}
	assert.True(t, decimal.RequireFromString("30000.00").Equal(inv.Outstanding()))
}
