package distributionserver

import (
	"time"

	"github.com/shopspring/decimal"

	invdomain "github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	paydomain "github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	tripsdomain "github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
)

// OrderItem is one product line on an order response.
type OrderItem struct {
	ProductId int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Order is the order resource returned by the API.
type Order struct {
	Id          int64           `json:"id"`
	Reference   string          `json:"reference"`
	StoreId     int64           `json:"storeId"`
	WarehouseId int64           `json:"warehouseId"`
	AgentId     string          `json:"agentId,omitempty"`
	Status      string          `json:"status"`
	Items       []OrderItem     `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	IsPaid      bool            `json:"isPaid"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Version     int64           `json:"version"`
}

// OrderAuditEntry is one recorded status change.
type OrderAuditEntry struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorId    string    `json:"actorId,omitempty"`
	Note       string    `json:"note,omitempty"`
	At         time.Time `json:"at"`
}

// OrderBalance is the derived payment view of an order.
type OrderBalance struct {
	Total             decimal.Decimal `json:"total"`
	TotalPaid         decimal.Decimal `json:"totalPaid"`
	RemainingBalance  decimal.Decimal `json:"remainingBalance"`
	HasPartialPayment bool            `json:"hasPartialPayment"`
}

// OrderItemRequest is one requested product line.
type OrderItemRequest struct {
	ProductId int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// PlaceOrderRequest creates a new order.
type PlaceOrderRequest struct {
	StoreId     int64              `json:"storeId"`
	WarehouseId int64              `json:"warehouseId"`
	AgentId     string             `json:"agentId"`
	Items       []OrderItemRequest `json:"items"`
	ActorId     string             `json:"actorId"`
}

// EditOrderRequest replaces the item lines of a pending order.
type EditOrderRequest struct {
	Items   []OrderItemRequest `json:"items"`
	ActorId string             `json:"actorId"`
}

// TransitionOrderRequest moves an order to an explicit status.
type TransitionOrderRequest struct {
	Status  string `json:"status"`
	ActorId string `json:"actorId"`
}

// ActorRequest carries just the acting user for lifecycle shortcuts.
type ActorRequest struct {
	ActorId string `json:"actorId"`
}

// Inventory is one stock record.
type Inventory struct {
	Id            int64      `json:"id"`
	ProductId     int64      `json:"productId"`
	WarehouseId   int64      `json:"warehouseId"`
	StockLevel    int64      `json:"stockLevel"`
	ReorderLevel  int64      `json:"reorderLevel"`
	MaxStock      int64      `json:"maxStock"`
	LowStock      bool       `json:"lowStock"`
	LastRestocked *time.Time `json:"lastRestocked,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Version       int64      `json:"version"`
}

// InventoryMovement is one ledger entry.
type InventoryMovement struct {
	Id            string    `json:"id"`
	InventoryId   int64     `json:"inventoryId"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previousStock"`
	NewStock      int64     `json:"newStock"`
	Reference     string    `json:"reference,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
	RecordedById  string    `json:"recordedById,omitempty"`
}

// CreateInventoryRequest seeds a new stock record.
type CreateInventoryRequest struct {
	ProductId    int64  `json:"productId"`
	WarehouseId  int64  `json:"warehouseId"`
	StockLevel   int64  `json:"stockLevel"`
	ReorderLevel int64  `json:"reorderLevel"`
	MaxStock     int64  `json:"maxStock"`
	ActorId      string `json:"actorId"`
}

// AdjustInventoryRequest applies a manual correction.
type AdjustInventoryRequest struct {
	Delta                  int64  `json:"delta"`
	Type                   string `json:"type"`
	Reference              string `json:"reference"`
	Notes                  string `json:"notes"`
	ActorId                string `json:"actorId"`
	AdministrativeOverride bool   `json:"administrativeOverride"`
}

// RestockRequest records incoming stock for a product at a warehouse.
type RestockRequest struct {
	ProductId   int64  `json:"productId"`
	WarehouseId int64  `json:"warehouseId"`
	Quantity    int64  `json:"quantity"`
	Reference   string `json:"reference"`
	ActorId     string `json:"actorId"`
}

// TripAssignment is one stop on a trip.
type TripAssignment struct {
	OrderId           int64      `json:"orderId"`
	Sequence          int        `json:"sequence"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
	DeliveryPhotoRefs []string   `json:"deliveryPhotoRefs,omitempty"`
}

// Trip is one delivery run.
type Trip struct {
	Id           int64            `json:"id"`
	Reference    string           `json:"reference"`
	WarehouseId  int64            `json:"warehouseId"`
	DriverId     string           `json:"driverId"`
	VehicleId    string           `json:"vehicleId"`
	Status       string           `json:"status"`
	Assignments  []TripAssignment `json:"assignments"`
	DispatchedAt *time.Time       `json:"dispatchedAt,omitempty"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Version      int64            `json:"version"`
}

// CreateTripRequest groups packed orders from one warehouse onto a
// driver and vehicle.
type CreateTripRequest struct {
	WarehouseId int64   `json:"warehouseId"`
	DriverId    string  `json:"driverId"`
	VehicleId   string  `json:"vehicleId"`
	OrderIds    []int64 `json:"orderIds"`
	ActorId     string  `json:"actorId"`
}

// ReorderTripRequest resequences the trip's stops.
type ReorderTripRequest struct {
	OrderIds []int64 `json:"orderIds"`
	ActorId  string  `json:"actorId"`
}

// SequenceSuggestion is a proposed stop order.
type SequenceSuggestion struct {
	OrderIds []int64 `json:"orderIds"`
}

// DeliveryResponse is the outcome of marking a stop delivered.
type DeliveryResponse struct {
	Trip          Trip     `json:"trip"`
	InvoiceNumber string   `json:"invoiceNumber,omitempty"`
	DocumentRef   string   `json:"documentRef,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Payment is one recorded tender.
type Payment struct {
	Id          int64           `json:"id"`
	OrderId     int64           `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	ReferenceNo string          `json:"referenceNo,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	ReceivedBy  string          `json:"receivedBy,omitempty"`
	ReceivedAt  time.Time       `json:"receivedAt"`
	Verified    bool            `json:"verified"`
	VerifiedBy  string          `json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time      `json:"verifiedAt,omitempty"`
}

// RecordPaymentResponse reports the order balance after a tender.
type RecordPaymentResponse struct {
	Payment     Payment         `json:"payment"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Remaining   decimal.Decimal `json:"remaining"`
	OrderPaid   bool            `json:"orderPaid"`
	Overpayment decimal.Decimal `json:"overpayment"`
}

// RecordPaymentRequest captures a tender against an order.
type RecordPaymentRequest struct {
	OrderId     int64           `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	ReferenceNo string          `json:"referenceNo"`
	Notes       string          `json:"notes"`
	ActorId     string          `json:"actorId"`
}

// Invoice is one issued invoice.
type Invoice struct {
	Id       int64           `json:"id"`
	Number   string          `json:"number"`
	OrderId  int64           `json:"orderId"`
	StoreId  int64           `json:"storeId"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Status   string          `json:"status"`
	IssuedAt time.Time       `json:"issuedAt"`
	DueAt    time.Time       `json:"dueAt"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

// AgingSummary groups outstanding balances by age bucket.
type AgingSummary struct {
	Current decimal.Decimal `json:"current"`
	Days60  decimal.Decimal `json:"days31To60"`
	Days90  decimal.Decimal `json:"days61To90"`
	Over90  decimal.Decimal `json:"over90"`
	Total   decimal.Decimal `json:"total"`
}

// StoreAging is an aging summary scoped to one store.
type StoreAging struct {
	StoreId int64        `json:"storeId"`
	Summary AgingSummary `json:"summary"`
}

// AgingReport is the accounts-receivable aging response.
type AgingReport struct {
	Overall  AgingSummary `json:"overall"`
	PerStore []StoreAging `json:"perStore"`
}

// FlagOverdueResponse reports how many invoices a sweep flagged.
type FlagOverdueResponse struct {
	Flagged int `json:"flagged"`
}

func fromOrder(order *ordersdomain.Order) Order {
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ProductId: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		})
	}
	return Order{
		Id:          order.ID,
		Reference:   order.Reference,
		StoreId:     order.StoreID,
		WarehouseId: order.WarehouseID,
		AgentId:     order.AgentID,
		Status:      string(order.Status),
		Items:       items,
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Total:       order.Total,
		IsPaid:      order.IsPaid,
		PaidAt:      order.PaidAt,
		CreatedAt:   order.Meta.CreatedAt,
		UpdatedAt:   order.Meta.UpdatedAt,
		Version:     order.Meta.Version,
	}
}

func fromOrderList(orders []*ordersdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, fromOrder(order))
	}
	return out
}

func toItemInputs(items []OrderItemRequest) []ordersports.ItemInput {
	out := make([]ordersports.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, ordersports.ItemInput{ProductID: item.ProductId, Quantity: item.Quantity})
	}
	return out
}

func fromInventory(inv *invdomain.Inventory) Inventory {
	return Inventory{
		Id:            inv.ID,
		ProductId:     inv.ProductID,
		WarehouseId:   inv.WarehouseID,
		StockLevel:    inv.StockLevel,
		ReorderLevel:  inv.ReorderLevel,
		MaxStock:      inv.MaxStock,
		LowStock:      inv.BelowReorderLevel(),
		LastRestocked: inv.LastRestocked,
		CreatedAt:     inv.Meta.CreatedAt,
		UpdatedAt:     inv.Meta.UpdatedAt,
		Version:       inv.Meta.Version,
	}
}

func fromInventoryList(records []*invdomain.Inventory) []Inventory {
	out := make([]Inventory, 0, len(records))
	for _, record := range records {
		out = append(out, fromInventory(record))
	}
	return out
}

func fromMovements(movements []invdomain.Movement) []InventoryMovement {
	out := make([]InventoryMovement, 0, len(movements))
	for _, movement := range movements {
		out = append(out, InventoryMovement{
			Id:            movement.ID,
			InventoryId:   movement.InventoryID,
			Type:          string(movement.Type),
			Quantity:      movement.Quantity,
			PreviousStock: movement.PreviousStock,
			NewStock:      movement.NewStock,
			Reference:     movement.Reference,
			Notes:         movement.Notes,
			RecordedAt:    movement.RecordedAt,
			RecordedById:  movement.RecordedByID,
		})
	}
	return out
}

func fromTrip(trip *tripsdomain.Trip) Trip {
	assignments := make([]TripAssignment, 0, len(trip.Assignments))
	for _, assignment := range trip.SortedAssignments() {
		assignments = append(assignments, TripAssignment{
			OrderId:           assignment.OrderID,
			Sequence:          assignment.Sequence,
			Status:            string(assignment.Status),
			Notes:             assignment.Notes,
			DeliveredAt:       assignment.DeliveredAt,
			DeliveryPhotoRefs: assignment.DeliveryPhotoRefs,
		})
	}
	return Trip{
		Id:           trip.ID,
		Reference:    trip.Reference,
		WarehouseId:  trip.WarehouseID,
		DriverId:     trip.DriverID,
		VehicleId:    trip.VehicleID,
		Status:       string(trip.Status),
		Assignments:  assignments,
		DispatchedAt: trip.DispatchedAt,
		CompletedAt:  trip.CompletedAt,
		CreatedAt:    trip.Meta.CreatedAt,
		UpdatedAt:    trip.Meta.UpdatedAt,
		Version:      trip.Meta.Version,
	}
}

func fromTripList(trips []*tripsdomain.Trip) []Trip {
	out := make([]Trip, 0, len(trips))
	for _, trip := range trips {
		out = append(out, fromTrip(trip))
	}
	return out
}

func fromPayment(payment *paydomain.Payment) Payment {
	return Payment{
		Id:          payment.ID,
		OrderId:     payment.OrderID,
		Amount:      payment.Amount,
		Method:      string(payment.Method),
		ReferenceNo: payment.ReferenceNo,
		Notes:       payment.Notes,
		ReceivedBy:  payment.ReceivedBy,
		ReceivedAt:  payment.ReceivedAt,
		Verified:    payment.Verified,
		VerifiedBy:  payment.VerifiedBy,
		VerifiedAt:  payment.VerifiedAt,
	}
}

func fromPaymentList(payments []*paydomain.Payment) []Payment {
	out := make([]Payment, 0, len(payments))
	for _, payment := range payments {
		out = append(out, fromPayment(payment))
	}
	return out
}

func fromInvoice(invoice *paydomain.Invoice) Invoice {
	return Invoice{
		Id:       invoice.ID,
		Number:   invoice.Number,
		OrderId:  invoice.OrderID,
		StoreId:  invoice.StoreID,
		Subtotal: invoice.Subtotal,
		Tax:      invoice.Tax,
		Total:    invoice.Total,
		Status:   string(invoice.Status),
		IssuedAt: invoice.IssuedAt,
		DueAt:    invoice.DueAt,
		PaidAt:   invoice.PaidAt,
	}
}

func fromInvoiceList(invoices []*paydomain.Invoice) []Invoice {
	out := make([]Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		out = append(out, fromInvoice(invoice))
	}
	return out
}

func fromAgingSummary(summary *paydomain.AgingSummary) AgingSummary {
	return AgingSummary{
		Current: summary.Current,
		Days60:  summary.Days60,
		Days90:  summary.Days90,
		Over90:  summary.Over90,
		Total:   summary.Total,
	}
}
