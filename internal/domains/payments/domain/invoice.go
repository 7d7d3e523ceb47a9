package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

// InvoiceStatus tracks the billing lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceIssued  InvoiceStatus = "issued"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
	InvoiceVoided  InvoiceStatus = "voided"
)

// Invoice is the billing document generated once per delivered order.
type Invoice struct {
	ID       int64
	Number   string
	OrderID  int64
	StoreID  int64
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Status   InvoiceStatus
	IssuedAt time.Time
	DueAt    time.Time
	PaidAt   *time.Time

	Meta audit.Metadata
}

// NewInvoice issues an invoice with the given payment terms.
func NewInvoice(number string, orderID, storeID int64, subtotal, tax, total decimal.Decimal, terms time.Duration, actorID string, now time.Time) *Invoice {
	inv := &Invoice{
		Number:   number,
		OrderID:  orderID,
		StoreID:  storeID,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
		Status:   InvoiceIssued,
		IssuedAt: now,
		DueAt:    now.Add(terms),
	}
	inv.Meta.Stamp(actorID, now)
	return inv
}

// IsOverdue reports whether the invoice is unpaid past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == InvoicePaid || i.Status == InvoiceVoided {
		return false
	}
	return now.After(i.DueAt)
}

// MarkPaid settles the invoice.
func (i *Invoice) MarkPaid(actorID string, now time.Time) {
	i.Status = InvoicePaid
	at := now
	i.PaidAt = &at
	i.Meta.Touch(actorID, now)
}

// MarkOverdue flags an unpaid invoice past its due date. Paid and
// voided invoices are left alone.
func (i *Invoice) MarkOverdue(actorID string, now time.Time) bool {
	if !i.IsOverdue(now) || i.Status == InvoiceOverdue {
		return false
	}
	i.Status = InvoiceOverdue
	i.Meta.Touch(actorID, now)
	return true
}
