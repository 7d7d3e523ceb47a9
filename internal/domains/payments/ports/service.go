package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
)

// OrderInfo is the slice of an order that payments cares about.
type OrderInfo struct {
	ID          int64
	StoreID     int64
	Reference   string
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	IsPaid      bool
	Delivered   bool
	DeliveredAt *time.Time
}

// OrderReader exposes order lookups to the payments context.
type OrderReader interface {
	Order(ctx context.Context, orderID int64) (*OrderInfo, error)
}

// OrderPaymentMarker flips the paid flag on an order once its
// recorded payments cover the total.
type OrderPaymentMarker interface {
	SetPaid(ctx context.Context, orderID int64, paid bool, actorID string) error
}

// RecordPaymentInput captures a tender against an order.
type RecordPaymentInput struct {
	OrderID     int64
	Amount      decimal.Decimal
	Method      domain.Method
	ReferenceNo string
	Notes       string
	ActorID     string
}

// PaymentResult reports the order balance after a tender was recorded.
type PaymentResult struct {
	Payment     *domain.Payment
	TotalPaid   decimal.Decimal
	Remaining   decimal.Decimal
	OrderPaid   bool
	Overpayment decimal.Decimal
}

// Service is the payments application surface.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error)
	ReconcilePayment(ctx context.Context, paymentID int64, actorID string) (*domain.Payment, error)
	GenerateInvoice(ctx context.Context, orderID int64, actorID string) (*domain.Invoice, error)
	FlagOverdueInvoices(ctx context.Context, actorID string) (int, error)
	ComputeARAging(ctx context.Context, asOf time.Time) (*domain.AgingSummary, []domain.StoreAging, error)
	TotalPaid(ctx context.Context, orderID int64) (decimal.Decimal, error)
	PaymentsByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error)
	InvoiceByOrder(ctx context.Context, orderID int64) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error)
}
