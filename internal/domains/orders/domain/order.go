package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPacked     Status = "packed"
	StatusDispatched Status = "dispatched"
	StatusInTransit  Status = "in_transit"
	StatusAtStore    Status = "at_store"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// transitions is the single authoritative state table. Guards live here and
// nowhere else; callers go through Order.Transition.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusPacked, StatusCancelled},
	StatusPacked:     {StatusDispatched, StatusCancelled},
	// Dispatched→Packed is the trip-cancellation revert: the goods go back
	// to the warehouse queue without the order itself being cancelled.
	StatusDispatched: {StatusInTransit, StatusPacked, StatusCancelled},
	StatusInTransit:  {StatusAtStore, StatusCancelled},
	StatusAtStore:    {StatusDelivered, StatusReturned, StatusCancelled},
	StatusDelivered:  {StatusReturned},
	StatusCancelled:  {},
	StatusReturned:   {},
}

// forwardRank orders the happy-path states so callers can ask whether an
// order has passed a given stage (e.g. whether stock was decremented).
var forwardRank = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusPacked:     2,
	StatusDispatched: 3,
	StatusInTransit:  4,
	StatusAtStore:    5,
	StatusDelivered:  6,
}

var (
	ErrNoItems           = errors.New("order requires at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be greater than zero")
	ErrInvalidUnitPrice  = errors.New("item unit price must not be negative")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrItemsLocked       = errors.New("order items are immutable once the order leaves pending")
	ErrInvalidStore      = errors.New("store id must be greater than zero")
	ErrInvalidWarehouse  = errors.New("warehouse id must be greater than zero")
	ErrInvalidProduct    = errors.New("product id must be greater than zero")
	ErrCreditLimitBreach = errors.New("store credit limit exceeded")
)

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition checks the state table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

// AtOrPast reports whether s has reached stage on the forward path.
// Cancelled and Returned are not on the forward path and compare false.
func (s Status) AtOrPast(stage Status) bool {
	rank, ok := forwardRank[s]
	if !ok {
		return false
	}
	stageRank, ok := forwardRank[stage]
	if !ok {
		return false
	}
	return rank >= stageRank
}

// Item is one product line. Lines lock once the order leaves pending.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// LineTotal is quantity times the captured unit price.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order models one purchase request from one store.
type Order struct {
	ID          int64
	Reference   string
	StoreID     int64
	WarehouseID int64
	AgentID     string
	Status      Status
	Items       []Item
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	IsPaid      bool
	PaidAt      *time.Time
	Meta        audit.Metadata
}

// NewOrder validates the invariants and builds a pending order.
func NewOrder(storeID, warehouseID int64, agentID string, items []Item, taxRate decimal.Decimal) (*Order, error) {
	if storeID <= 0 {
		return nil, ErrInvalidStore
	}
	if warehouseID <= 0 {
		return nil, ErrInvalidWarehouse
	}
	order := &Order{
		StoreID:     storeID,
		WarehouseID: warehouseID,
		AgentID:     agentID,
		Status:      StatusPending,
	}
	if err := order.setItems(items, taxRate); err != nil {
		return nil, err
	}
	return order, nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return ErrInvalidProduct
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return ErrInvalidUnitPrice
		}
	}
	return nil
}

func (o *Order) setItems(items []Item, taxRate decimal.Decimal) error {
	if err := validateItems(items); err != nil {
		return err
	}
	o.Items = append([]Item{}, items...)
	o.recomputeTotals(taxRate)
	return nil
}

// ReplaceItems swaps the line set. Permitted only while pending.
func (o *Order) ReplaceItems(items []Item, taxRate decimal.Decimal) error {
	if o.Status != StatusPending {
		return ErrItemsLocked
	}
	return o.setItems(items, taxRate)
}

// recomputeTotals maintains the identities total = subtotal + tax and
// subtotal = sum of line totals.
func (o *Order) recomputeTotals(taxRate decimal.Decimal) {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(taxRate).Round(4)
	o.Total = o.Subtotal.Add(o.Tax)
}

// Transition moves the order to target after checking the state table.
func (o *Order) Transition(target Status) error {
	if !ValidStatus(target) {
		return ErrUnknownStatus
	}
	if !CanTransition(o.Status, target) {
		return ErrIllegalTransition
	}
	o.Status = target
	return nil
}

// MarkPaid records the paid flag recomputed from the payment ledger.
func (o *Order) MarkPaid(paid bool, at time.Time) {
	o.IsPaid = paid
	if paid {
		paidAt := at
		o.PaidAt = &paidAt
	} else {
		o.PaidAt = nil
	}
}

// StockDecremented reports whether packing already moved goods out of the
// warehouse for this order, i.e. a cancel/return must restore stock.
func (o *Order) StockDecremented() bool {
	return o.Status.AtOrPast(StatusPacked)
}
