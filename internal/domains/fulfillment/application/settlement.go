package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	paydomain "github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"

	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
)

// Settlement runs the post-delivery billing steps for one order:
// generate the invoice, render the printable document, and notify the
// store. Only invoice generation can fail the settlement; rendering and
// notification degrade to warnings.
type Settlement struct {
	orders   ordersports.Service
	payments payports.Service
	renderer ports.DocumentRenderer
	notifier ports.Notifier
	now      func() time.Time
}

type SettlementOption func(*Settlement)

// WithDocumentRenderer wires the external document service.
func WithDocumentRenderer(renderer ports.DocumentRenderer) SettlementOption {
	return func(s *Settlement) { s.renderer = renderer }
}

// WithNotifier wires the external notification channel.
func WithNotifier(notifier ports.Notifier) SettlementOption {
	return func(s *Settlement) { s.notifier = notifier }
}

func WithSettlementClock(now func() time.Time) SettlementOption {
	return func(s *Settlement) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSettlement(orders ordersports.Service, payments payports.Service, opts ...SettlementOption) *Settlement {
	s := &Settlement{
		orders:   orders,
		payments: payments,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SettleDelivery is idempotent: settling an already invoiced order
// reuses the existing invoice and reports it in the warnings.
func (s *Settlement) SettleDelivery(ctx context.Context, input fulfillmenttypes.SettleDeliveryInput) (*fulfillmenttypes.SettlementResult, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", input.OrderID, err)
	}

	result := &fulfillmenttypes.SettlementResult{}
	invoice, err := s.payments.GenerateInvoice(ctx, input.OrderID, input.ActorID)
	if errors.Is(err, paydomain.ErrAlreadyInvoiced) {
		result.AlreadyInvoiced = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("order %d already invoiced", input.OrderID))
		invoice, err = s.payments.InvoiceByOrder(ctx, input.OrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("invoice order %d: %w", input.OrderID, err)
	}
	result.InvoiceNumber = invoice.Number

	result.DocumentRef, result.Warnings = s.renderDocument(ctx, order, invoice, result.Warnings)
	result.Warnings = s.notifyDelivered(ctx, order, invoice, input.TripID, result.Warnings)
	return result, nil
}

func (s *Settlement) renderDocument(ctx context.Context, order *ordersdomain.Order, invoice *paydomain.Invoice, warnings []string) (string, []string) {
	if s.renderer == nil {
		return "", warnings
	}
	ref, err := s.renderer.RenderInvoice(ctx, ports.InvoiceDocument{
		InvoiceNumber:  invoice.Number,
		OrderID:        order.ID,
		OrderReference: order.Reference,
		StoreID:        order.StoreID,
		Subtotal:       invoice.Subtotal,
		Tax:            invoice.Tax,
		Total:          invoice.Total,
		IssuedAt:       invoice.IssuedAt,
		DueAt:          invoice.DueAt,
	})
	if err != nil {
		return "", append(warnings, fmt.Sprintf("render invoice %s: %v", invoice.Number, err))
	}
	return ref, warnings
}

func (s *Settlement) notifyDelivered(ctx context.Context, order *ordersdomain.Order, invoice *paydomain.Invoice, tripID int64, warnings []string) []string {
	if s.notifier == nil {
		return warnings
	}
	deliveredAt := s.now()
	if order.Status == ordersdomain.StatusDelivered && order.Meta.UpdatedAt.After(time.Time{}) {
		deliveredAt = order.Meta.UpdatedAt
	}
	err := s.notifier.NotifyDelivered(ctx, ports.DeliveryNotice{
		OrderID:        order.ID,
		OrderReference: order.Reference,
		StoreID:        order.StoreID,
		TripID:         tripID,
		InvoiceNumber:  invoice.Number,
		DeliveredAt:    deliveredAt,
	})
	if err != nil {
		return append(warnings, fmt.Sprintf("notify store %d: %v", order.StoreID, err))
	}
	return warnings
}
