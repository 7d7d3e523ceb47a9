package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	refports "github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
)

// defaultTaxRate is the VAT applied to order subtotals unless configured.
var defaultTaxRate = decimal.NewFromFloat(0.12)

// Service orchestrates the order lifecycle use cases. All status changes
// funnel through Transition; the state table in the domain package is the
// sole arbiter.
type Service struct {
	repo     ports.Repository
	catalog  refports.Lookup
	stock    ports.StockReserver
	payments ports.PaymentReader
	taxRate  decimal.Decimal
	now      func() time.Time
}

type Option func(*Service)

// WithStockReserver wires the inventory collaborator used on pack and
// cancel/return transitions.
func WithStockReserver(stock ports.StockReserver) Option {
	return func(s *Service) { s.stock = stock }
}

// WithPaymentReader wires the payment ledger used for derived balances and
// the credit-limit check.
func WithPaymentReader(payments ports.PaymentReader) Option {
	return func(s *Service) { s.payments = payments }
}

// WithTaxRate overrides the default VAT rate.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(s *Service) { s.taxRate = rate }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, catalog refports.Lookup, opts ...Option) *Service {
	s := &Service{repo: repo, catalog: catalog, taxRate: defaultTaxRate, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder validates the store and products, captures current catalog
// prices, enforces the store credit limit, and persists a pending order.
func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	store, err := s.catalog.Store(ctx, input.StoreID)
	if err != nil {
		return nil, mapLookupError(err, "store", input.StoreID)
	}
	if !store.IsActive {
		return nil, mapError(fmt.Errorf("%w: store %d is inactive", ErrInvalidInput, input.StoreID))
	}
	if _, err := s.catalog.Warehouse(ctx, input.WarehouseID); err != nil {
		return nil, mapLookupError(err, "warehouse", input.WarehouseID)
	}
	items, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	order, err := domain.NewOrder(input.StoreID, input.WarehouseID, input.AgentID, items, s.taxRate)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.checkCreditLimit(ctx, store.CreditLimit, input.StoreID, order.Total); err != nil {
		return nil, err
	}
	order.Reference = "ORD-" + uuid.NewString()
	order.Meta.Stamp(input.ActorID, s.now())
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// priceItems resolves each line's product and captures its current unit
// price; later catalog changes never retroactively reprice the order.
func (s *Service) priceItems(ctx context.Context, inputs []ports.ItemInput) ([]domain.Item, error) {
	if len(inputs) == 0 {
		return nil, mapError(domain.ErrNoItems)
	}
	items := make([]domain.Item, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, mapError(domain.ErrInvalidQuantity)
		}
		product, err := s.catalog.Product(ctx, in.ProductID)
		if err != nil {
			return nil, mapLookupError(err, "product", in.ProductID)
		}
		if !product.IsActive {
			return nil, mapError(fmt.Errorf("%w: product %d is inactive", ErrInvalidInput, in.ProductID))
		}
		items = append(items, domain.Item{
			ProductID: product.ID,
			Quantity:  in.Quantity,
			UnitPrice: product.UnitPrice,
		})
	}
	return items, nil
}

// checkCreditLimit rejects the order when outstanding + total would breach
// the store's ceiling. A zero limit means unlimited credit.
func (s *Service) checkCreditLimit(ctx context.Context, limit decimal.Decimal, storeID int64, total decimal.Decimal) error {
	if limit.IsZero() {
		return nil
	}
	outstanding, err := s.outstandingBalance(ctx, storeID)
	if err != nil {
		return mapError(err)
	}
	if outstanding.Add(total).GreaterThan(limit) {
		return mapError(domain.ErrCreditLimitBreach)
	}
	return nil
}

// outstandingBalance sums the unpaid remainder of the store's open orders.
func (s *Service) outstandingBalance(ctx context.Context, storeID int64) (decimal.Decimal, error) {
	orders, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return decimal.Zero, err
	}
	outstanding := decimal.Zero
	for _, order := range orders {
		if order.Status == domain.StatusCancelled || order.Status == domain.StatusReturned || order.IsPaid {
			continue
		}
		remaining := order.Total
		if s.payments != nil {
			paid, err := s.payments.TotalPaid(ctx, order.ID)
			if err != nil {
				return decimal.Zero, err
			}
			remaining = remaining.Sub(paid)
		}
		if remaining.IsPositive() {
			outstanding = outstanding.Add(remaining)
		}
	}
	return outstanding, nil
}

// Transition is the single authoritative status entry point. Packing
// reserves stock for every line atomically; cancelling or returning a
// packed order restores it. Every transition appends an audit entry.
func (s *Service) Transition(ctx context.Context, orderID int64, target domain.Status, actorID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	from := order.Status
	if !domain.ValidStatus(target) {
		return nil, mapError(domain.ErrUnknownStatus)
	}
	if !domain.CanTransition(from, target) {
		return nil, mapError(fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, from, target))
	}

	reserved := false
	released := false
	switch {
	case from == domain.StatusConfirmed && target == domain.StatusPacked:
		if err := s.reserveStock(ctx, order, actorID); err != nil {
			return nil, mapError(err)
		}
		reserved = true
	case (target == domain.StatusCancelled || target == domain.StatusReturned) && order.StockDecremented():
		if err := s.releaseStock(ctx, order, actorID); err != nil {
			return nil, mapError(err)
		}
		released = true
	}

	if err := order.Transition(target); err != nil {
		return nil, mapError(err)
	}
	order.Meta.Touch(actorID, s.now())
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		// The stock side effect already committed; undo it so a lost
		// version race leaves no phantom movement behind.
		if reserved {
			_ = s.releaseStock(ctx, order, actorID)
		}
		if released {
			_ = s.reserveStock(ctx, order, actorID)
		}
		return nil, mapError(err)
	}
	entry := domain.AuditEntry{
		OrderID:    saved.ID,
		FromStatus: from,
		ToStatus:   target,
		ActorID:    actorID,
		At:         s.now(),
	}
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) reserveStock(ctx context.Context, order *domain.Order, actorID string) error {
	if s.stock == nil {
		return nil
	}
	return s.stock.Reserve(ctx, stockLines(order), order.Reference, actorID)
}

func (s *Service) releaseStock(ctx context.Context, order *domain.Order, actorID string) error {
	if s.stock == nil {
		return nil
	}
	return s.stock.Release(ctx, stockLines(order), order.Reference, actorID)
}

func stockLines(order *domain.Order) []ports.StockLine {
	lines := make([]ports.StockLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, ports.StockLine{
			ProductID:   item.ProductID,
			WarehouseID: order.WarehouseID,
			Quantity:    item.Quantity,
		})
	}
	return lines
}

// EditOrder replaces the item set while the order is still pending,
// re-capturing current catalog prices and recomputing totals.
func (s *Service) EditOrder(ctx context.Context, orderID int64, inputs []ports.ItemInput, actorID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	items, err := s.priceItems(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if err := order.ReplaceItems(items, s.taxRate); err != nil {
		return nil, mapError(err)
	}
	order.Meta.Touch(actorID, s.now())
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// SetPaid records the paid flag recomputed by the payment ledger.
func (s *Service) SetPaid(ctx context.Context, orderID int64, paid bool, actorID string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return mapError(err)
	}
	if order.IsPaid == paid {
		return nil
	}
	order.MarkPaid(paid, s.now())
	order.Meta.Touch(actorID, s.now())
	if _, err := s.repo.Save(ctx, order); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	orders, err := s.repo.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

func (s *Service) ListByStore(ctx context.Context, storeID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// Balance derives the payment view of one order from the ledger; nothing
// here is cached.
func (s *Service) Balance(ctx context.Context, orderID int64) (*ports.Balance, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	paid := decimal.Zero
	if s.payments != nil {
		paid, err = s.payments.TotalPaid(ctx, order.ID)
		if err != nil {
			return nil, mapError(err)
		}
	}
	return &ports.Balance{
		Total:             order.Total,
		TotalPaid:         paid,
		RemainingBalance:  order.Total.Sub(paid),
		HasPartialPayment: paid.IsPositive() && paid.LessThan(order.Total),
	}, nil
}

func (s *Service) AuditTrail(ctx context.Context, orderID int64) ([]domain.AuditEntry, error) {
	trail, err := s.repo.AuditTrail(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return trail, nil
}

var _ ports.Service = (*Service)(nil)
