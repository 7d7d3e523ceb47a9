package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/activity"

	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
	fulfillmentports "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	paydomain "github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
)

const (
	// GenerateInvoiceActivityName issues (or reloads) the invoice for a delivered order.
	GenerateInvoiceActivityName = "settlement.activities.GenerateInvoice"
	// RenderInvoiceDocumentActivityName renders the printable invoice on the document service.
	RenderInvoiceDocumentActivityName = "settlement.activities.RenderInvoiceDocument"
	// NotifyDeliveredActivityName pushes the delivery notice to the store.
	NotifyDeliveredActivityName = "settlement.activities.NotifyDelivered"
)

// InvoiceSnapshot is the cross-activity payload: everything the render
// and notify steps need, captured when the invoice is issued.
type InvoiceSnapshot struct {
	InvoiceNumber   string
	AlreadyInvoiced bool
	OrderID         int64
	OrderReference  string
	StoreID         int64
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	IssuedAt        time.Time
	DueAt           time.Time
	DeliveredAt     time.Time
}

// NotifyInput pairs the invoice snapshot with the trip that delivered it.
type NotifyInput struct {
	Snapshot InvoiceSnapshot
	TripID   int64
}

// Activities groups the settlement steps run by the Temporal worker.
type Activities struct {
	orders   ordersports.Service
	payments payports.Service
	renderer fulfillmentports.DocumentRenderer
	notifier fulfillmentports.Notifier
}

// NewActivities wires the settlement collaborators into the Temporal activities bundle.
func NewActivities(orders ordersports.Service, payments payports.Service, renderer fulfillmentports.DocumentRenderer, notifier fulfillmentports.Notifier) *Activities {
	return &Activities{
		orders:   orders,
		payments: payments,
		renderer: renderer,
		notifier: notifier,
	}
}

// GenerateInvoice issues the invoice for a delivered order, or reloads
// the existing one so the workflow stays idempotent across retries.
func (a *Activities) GenerateInvoice(ctx context.Context, input fulfillmenttypes.SettleDeliveryInput) (*InvoiceSnapshot, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.payments == nil || a.orders == nil {
		logger.Error("settlement activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("settlement activity not initialized")
	}
	logger.Info("GenerateInvoice activity started", "orderId", input.OrderID)

	order, err := a.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		logger.Error("GenerateInvoice failed to load order", "orderId", input.OrderID, "error", err)
		return nil, err
	}

	alreadyInvoiced := false
	invoice, err := a.payments.GenerateInvoice(ctx, input.OrderID, input.ActorID)
	if errors.Is(err, paydomain.ErrAlreadyInvoiced) {
		alreadyInvoiced = true
		invoice, err = a.payments.InvoiceByOrder(ctx, input.OrderID)
	}
	if err != nil {
		logger.Error("GenerateInvoice failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}

	snapshot := &InvoiceSnapshot{
		InvoiceNumber:   invoice.Number,
		AlreadyInvoiced: alreadyInvoiced,
		OrderID:         order.ID,
		OrderReference:  order.Reference,
		StoreID:         order.StoreID,
		Subtotal:        invoice.Subtotal,
		Tax:             invoice.Tax,
		Total:           invoice.Total,
		IssuedAt:        invoice.IssuedAt,
		DueAt:           invoice.DueAt,
		DeliveredAt:     deliveredAt(order),
	}
	logger.Info("GenerateInvoice activity completed", "orderId", input.OrderID, "invoiceNumber", invoice.Number)
	return snapshot, nil
}

// RenderInvoiceDocument pushes the invoice to the document service and
// returns the rendered document reference.
func (a *Activities) RenderInvoiceDocument(ctx context.Context, snapshot InvoiceSnapshot) (string, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.renderer == nil {
		logger.Info("document renderer not configured; skipping", "orderId", snapshot.OrderID)
		return "", nil
	}
	logger.Info("RenderInvoiceDocument activity started", "invoiceNumber", snapshot.InvoiceNumber)
	ref, err := a.renderer.RenderInvoice(ctx, fulfillmentports.InvoiceDocument{
		InvoiceNumber:  snapshot.InvoiceNumber,
		OrderID:        snapshot.OrderID,
		OrderReference: snapshot.OrderReference,
		StoreID:        snapshot.StoreID,
		Subtotal:       snapshot.Subtotal,
		Tax:            snapshot.Tax,
		Total:          snapshot.Total,
		IssuedAt:       snapshot.IssuedAt,
		DueAt:          snapshot.DueAt,
	})
	if err != nil {
		logger.Error("RenderInvoiceDocument failed", "invoiceNumber", snapshot.InvoiceNumber, "error", err)
		return "", err
	}
	logger.Info("RenderInvoiceDocument activity completed", "invoiceNumber", snapshot.InvoiceNumber)
	return ref, nil
}

// NotifyDelivered tells the store their order arrived.
func (a *Activities) NotifyDelivered(ctx context.Context, input NotifyInput) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.notifier == nil {
		logger.Info("notifier not configured; skipping", "orderId", input.Snapshot.OrderID)
		return nil
	}
	logger.Info("NotifyDelivered activity started", "orderId", input.Snapshot.OrderID)
	err := a.notifier.NotifyDelivered(ctx, fulfillmentports.DeliveryNotice{
		OrderID:        input.Snapshot.OrderID,
		OrderReference: input.Snapshot.OrderReference,
		StoreID:        input.Snapshot.StoreID,
		TripID:         input.TripID,
		InvoiceNumber:  input.Snapshot.InvoiceNumber,
		DeliveredAt:    input.Snapshot.DeliveredAt,
	})
	if err != nil {
		logger.Error("NotifyDelivered failed", "orderId", input.Snapshot.OrderID, "error", err)
		return err
	}
	logger.Info("NotifyDelivered activity completed", "orderId", input.Snapshot.OrderID)
	return nil
}

func deliveredAt(order *ordersdomain.Order) time.Time {
	if order.Meta.UpdatedAt.IsZero() {
		return time.Now()
	}
	return order.Meta.UpdatedAt
}
