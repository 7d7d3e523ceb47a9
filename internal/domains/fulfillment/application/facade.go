package application

import (
	"context"
	"fmt"
	"log/slog"

	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
	tripsdomain "github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	tripsports "github.com/Apurer/go-distribution-api/internal/domains/trips/ports"

	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
)

// DeliveryResult is what marking a stop delivered produced: the updated
// trip, the settlement outcome, and any degraded steps.
type DeliveryResult struct {
	Trip       *tripsdomain.Trip
	Settlement *fulfillmenttypes.SettlementResult
	Warnings   []string
}

// Facade drives the end-to-end distribution flow across the orders,
// inventory, trips, and payments contexts. Each step delegates to the
// owning context; the facade only sequences them and carries the
// side-channel collaborators (photo storage, settlement).
type Facade struct {
	orders    ordersports.Service
	trips     tripsports.Service
	payments  payports.Service
	files     ports.FileStore
	workflows ports.WorkflowOrchestrator
	logger    *slog.Logger
}

type FacadeOption func(*Facade)

// WithFileStore wires proof-of-delivery photo storage.
func WithFileStore(files ports.FileStore) FacadeOption {
	return func(f *Facade) { f.files = files }
}

// WithWorkflowOrchestrator wires durable settlement. Without it
// deliveries are still recorded, just not settled automatically.
func WithWorkflowOrchestrator(workflows ports.WorkflowOrchestrator) FacadeOption {
	return func(f *Facade) { f.workflows = workflows }
}

func WithFacadeLogger(logger *slog.Logger) FacadeOption {
	return func(f *Facade) { f.logger = logger }
}

func NewFacade(orders ordersports.Service, trips tripsports.Service, payments payports.Service, opts ...FacadeOption) *Facade {
	f := &Facade{
		orders:   orders,
		trips:    trips,
		payments: payments,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Facade) PlaceOrder(ctx context.Context, input ordersports.CreateOrderInput) (*ordersdomain.Order, error) {
	return f.orders.CreateOrder(ctx, input)
}

func (f *Facade) ConfirmOrder(ctx context.Context, orderID int64, actorID string) (*ordersdomain.Order, error) {
	return f.orders.Transition(ctx, orderID, ordersdomain.StatusConfirmed, actorID)
}

// PackOrder reserves the order's stock as part of the transition.
func (f *Facade) PackOrder(ctx context.Context, orderID int64, actorID string) (*ordersdomain.Order, error) {
	return f.orders.Transition(ctx, orderID, ordersdomain.StatusPacked, actorID)
}

func (f *Facade) CancelOrder(ctx context.Context, orderID int64, actorID string) (*ordersdomain.Order, error) {
	return f.orders.Transition(ctx, orderID, ordersdomain.StatusCancelled, actorID)
}

func (f *Facade) CreateTrip(ctx context.Context, input tripsports.CreateTripInput) (*tripsdomain.Trip, error) {
	return f.trips.CreateTrip(ctx, input)
}

func (f *Facade) DispatchTrip(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error) {
	return f.trips.DispatchTrip(ctx, tripID, actorID)
}

func (f *Facade) MarkStopInTransit(ctx context.Context, tripID, orderID int64, actorID string) (*tripsdomain.Trip, error) {
	return f.trips.MarkStop(ctx, tripID, orderID, tripsdomain.StopInTransit, actorID)
}

func (f *Facade) MarkStopAtStore(ctx context.Context, tripID, orderID int64, actorID string) (*tripsdomain.Trip, error) {
	return f.trips.MarkStop(ctx, tripID, orderID, tripsdomain.StopAtStore, actorID)
}

func (f *Facade) MarkStopReturned(ctx context.Context, tripID, orderID int64, actorID string) (*tripsdomain.Trip, error) {
	return f.trips.MarkStop(ctx, tripID, orderID, tripsdomain.StopReturned, actorID)
}

// MarkStopDelivered records the delivery, stores proof-of-delivery
// photos, and kicks off settlement. Photo upload and settlement-side
// document failures never fail the delivery itself.
func (f *Facade) MarkStopDelivered(ctx context.Context, tripID, orderID int64, photos []ports.PhotoUpload, actorID string) (*DeliveryResult, error) {
	trip, err := f.trips.MarkStop(ctx, tripID, orderID, tripsdomain.StopDelivered, actorID)
	if err != nil {
		return nil, err
	}
	result := &DeliveryResult{Trip: trip}

	refs, warnings := f.uploadPhotos(ctx, photos)
	result.Warnings = warnings
	if len(refs) > 0 {
		trip, err = f.trips.AttachDeliveryPhotos(ctx, tripID, orderID, refs, actorID)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("attach delivery photos: %v", err))
		} else {
			result.Trip = trip
		}
	}

	if f.workflows != nil {
		settlement, err := f.workflows.SettleDelivery(ctx, fulfillmenttypes.SettleDeliveryInput{
			OrderID: orderID,
			TripID:  tripID,
			ActorID: actorID,
		})
		if err != nil {
			return nil, fmt.Errorf("settle delivery of order %d: %w", orderID, err)
		}
		result.Settlement = settlement
		result.Warnings = append(result.Warnings, settlement.Warnings...)
	}

	for _, warning := range result.Warnings {
		f.logWarn(ctx, "delivery step degraded",
			slog.Int64("trip.id", tripID),
			slog.Int64("order.id", orderID),
			slog.String("warning", warning))
	}
	return result, nil
}

func (f *Facade) CompleteTrip(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error) {
	return f.trips.CompleteTrip(ctx, tripID, actorID)
}

// CancelTrip reverts the assigned orders back to packed inside the
// trips context.
func (f *Facade) CancelTrip(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error) {
	return f.trips.CancelTrip(ctx, tripID, actorID)
}

func (f *Facade) RecordPayment(ctx context.Context, input payports.RecordPaymentInput) (*payports.PaymentResult, error) {
	return f.payments.RecordPayment(ctx, input)
}

func (f *Facade) uploadPhotos(ctx context.Context, photos []ports.PhotoUpload) ([]string, []string) {
	if len(photos) == 0 {
		return nil, nil
	}
	if f.files == nil {
		return nil, []string{"file store not configured; delivery photos dropped"}
	}
	var refs []string
	var warnings []string
	for _, photo := range photos {
		ref, err := f.files.Upload(ctx, photo)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("upload photo %q: %v", photo.Name, err))
			continue
		}
		refs = append(refs, ref)
	}
	return refs, warnings
}

func (f *Facade) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if f.logger == nil {
		return
	}
	f.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}
