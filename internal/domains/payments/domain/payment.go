package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

// Method identifies how a payment was tendered.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodBankTransfer Method = "bank_transfer"
	MethodGCash        Method = "gcash"
)

var (
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrAlreadyVerified   = errors.New("payment already verified")
	ErrAlreadyInvoiced   = errors.New("order already invoiced")
	ErrOrderNotDelivered = errors.New("order has not been delivered")
)

var validMethods = map[Method]struct{}{
	MethodCash:         {},
	MethodCheck:        {},
	MethodBankTransfer: {},
	MethodGCash:        {},
}

// ValidMethod reports whether m is a recognised payment method.
func ValidMethod(m Method) bool {
	_, ok := validMethods[m]
	return ok
}

// Payment is a single tender recorded against an order. Payments are
// append only; corrections are recorded as further payments.
type Payment struct {
	ID          int64
	OrderID     int64
	Amount      decimal.Decimal
	Method      Method
	ReferenceNo string
	Notes       string
	ReceivedBy  string
	ReceivedAt  time.Time

	// Verified marks back-office reconciliation of non-cash tenders.
	Verified   bool
	VerifiedBy string
	VerifiedAt *time.Time

	Meta audit.Metadata
}

// NewPayment validates the tender and stamps it.
func NewPayment(orderID int64, amount decimal.Decimal, method Method, referenceNo, notes, actorID string, now time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !ValidMethod(method) {
		return nil, ErrUnknownMethod
	}
	p := &Payment{
		OrderID:     orderID,
		Amount:      amount,
		Method:      method,
		ReferenceNo: referenceNo,
		Notes:       notes,
		ReceivedBy:  actorID,
		ReceivedAt:  now,
	}
	p.Meta.Stamp(actorID, now)
	return p, nil
}

// Verify marks the payment as reconciled. Verifying twice is a no-op
// error so callers can treat reconciliation as idempotent.
func (p *Payment) Verify(actorID string, now time.Time) error {
	if p.Verified {
		return ErrAlreadyVerified
	}
	p.Verified = true
	p.VerifiedBy = actorID
	at := now
	p.VerifiedAt = &at
	p.Meta.Touch(actorID, now)
	return nil
}
