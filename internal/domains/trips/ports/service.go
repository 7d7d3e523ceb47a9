package ports

import (
	"context"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
)

// OrderSnapshot is the slice of an order that trip planning needs.
type OrderSnapshot struct {
	ID            int64
	StoreID       int64
	WarehouseID   int64
	Ready         bool
	StoreLocation *domain.Point
}

// OrderGateway lets the trips context inspect and advance orders
// without depending on the orders packages directly.
type OrderGateway interface {
	Snapshot(ctx context.Context, orderID int64) (*OrderSnapshot, error)
	// Warehouse returns the coordinates of a warehouse, or nil when
	// they are unknown.
	Warehouse(ctx context.Context, warehouseID int64) (*domain.Point, error)
	// Transition moves the order to the status matching the given stop
	// status. StopPacked reverts a dispatched order back to packed.
	Transition(ctx context.Context, orderID int64, target domain.StopStatus, actorID string) error
}

// CreateTripInput describes a new delivery run.
type CreateTripInput struct {
	WarehouseID int64
	DriverID    string
	VehicleID   string
	OrderIDs    []int64
	ActorID     string
}

// Service is the trips application surface.
type Service interface {
	CreateTrip(ctx context.Context, input CreateTripInput) (*domain.Trip, error)
	ReorderAssignments(ctx context.Context, tripID int64, orderIDs []int64, actorID string) (*domain.Trip, error)
	SuggestSequence(ctx context.Context, tripID int64) ([]int64, error)
	DispatchTrip(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error)
	MarkStop(ctx context.Context, tripID, orderID int64, target domain.StopStatus, actorID string) (*domain.Trip, error)
	AttachDeliveryPhotos(ctx context.Context, tripID, orderID int64, refs []string, actorID string) (*domain.Trip, error)
	CompleteTrip(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error)
	CancelTrip(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Trip, error)
	ActiveTripForOrder(ctx context.Context, orderID int64) (*domain.Trip, error)
}
