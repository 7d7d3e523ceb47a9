package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func issuedInvoice(now time.Time) *Invoice {
	return NewInvoice("INV-1", 4, 2,
		decimal.NewFromInt(100), decimal.NewFromInt(12), decimal.NewFromInt(112),
		30*24*time.Hour, "billing", now)
}

func TestNewInvoice_AppliesTerms(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	invoice := issuedInvoice(now)

	require.Equal(t, InvoiceIssued, invoice.Status)
	require.Equal(t, now, invoice.IssuedAt)
	require.Equal(t, now.AddDate(0, 0, 30), invoice.DueAt)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	invoice := issuedInvoice(now)

	require.False(t, invoice.IsOverdue(invoice.DueAt))
	require.True(t, invoice.IsOverdue(invoice.DueAt.Add(time.Hour)))

	invoice.MarkPaid("billing", now)
	require.False(t, invoice.IsOverdue(invoice.DueAt.AddDate(0, 0, 10)))
}

func TestMarkOverdue(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	late := now.AddDate(0, 0, 45)

	invoice := issuedInvoice(now)
	require.False(t, invoice.MarkOverdue("sweeper", now.AddDate(0, 0, 10)))
	require.Equal(t, InvoiceIssued, invoice.Status)

	require.True(t, invoice.MarkOverdue("sweeper", late))
	require.Equal(t, InvoiceOverdue, invoice.Status)

	// Flagging twice is a no-op.
	require.False(t, invoice.MarkOverdue("sweeper", late))

	paid := issuedInvoice(now)
	paid.MarkPaid("billing", now)
	require.False(t, paid.MarkOverdue("sweeper", late))
	require.Equal(t, InvoicePaid, paid.Status)

	voided := issuedInvoice(now)
	voided.Status = InvoiceVoided
	require.False(t, voided.MarkOverdue("sweeper", late))
}
