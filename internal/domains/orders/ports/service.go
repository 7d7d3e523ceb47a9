package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
)

// ItemInput is one requested product line; the current catalog price is
// captured at creation time.
type ItemInput struct {
	ProductID int64
	Quantity  int64
}

// CreateOrderInput carries a new purchase request.
type CreateOrderInput struct {
	StoreID     int64
	WarehouseID int64
	AgentID     string
	Items       []ItemInput
	ActorID     string
}

// Balance is the computed payment view of one order. Derived on read, never
// stored.
type Balance struct {
	Total             decimal.Decimal
	TotalPaid         decimal.Decimal
	RemainingBalance  decimal.Decimal
	HasPartialPayment bool
}

// StockLine mirrors an order line against the warehouse the order draws from.
type StockLine struct {
	ProductID   int64
	WarehouseID int64
	Quantity    int64
}

// StockReserver is the inventory collaborator: all-or-nothing reservation
// and release of the stock behind an order's lines.
type StockReserver interface {
	Reserve(ctx context.Context, lines []StockLine, reference, actorID string) error
	Release(ctx context.Context, lines []StockLine, reference, actorID string) error
}

// PaymentReader exposes the payment ledger's per-order totals.
type PaymentReader interface {
	TotalPaid(ctx context.Context, orderID int64) (decimal.Decimal, error)
}

// Service is the order lifecycle use-case surface.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	EditOrder(ctx context.Context, orderID int64, items []ItemInput, actorID string) (*domain.Order, error)
	Transition(ctx context.Context, orderID int64, target domain.Status, actorID string) (*domain.Order, error)
	SetPaid(ctx context.Context, orderID int64, paid bool, actorID string) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error)
	ListByStore(ctx context.Context, storeID int64) ([]*domain.Order, error)
	Balance(ctx context.Context, orderID int64) (*Balance, error)
	AuditTrail(ctx context.Context, orderID int64) ([]domain.AuditEntry, error)
}
