package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

// maxSaveAttempts bounds the optimistic retry loop on the trip row.
const maxSaveAttempts = 3

// Service implements trip planning and delivery tracking. Order state
// moves in lockstep with stop state through the order gateway.
type Service struct {
	repo   ports.Repository
	orders ports.OrderGateway
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, orders ports.OrderGateway, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		orders: orders,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateTrip assigns a set of packed orders to a new delivery run out
// of one warehouse. Every order must be packed, stocked at that
// warehouse, and not already on an active trip.
func (s *Service) CreateTrip(ctx context.Context, input ports.CreateTripInput) (*domain.Trip, error) {
	for _, orderID := range input.OrderIDs {
		snapshot, err := s.orders.Snapshot(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("load order %d: %w", orderID, err)
		}
		if !snapshot.Ready {
			return nil, fmt.Errorf("%w: order %d", ErrOrderNotReady, orderID)
		}
		if snapshot.WarehouseID != input.WarehouseID {
			return nil, fmt.Errorf("%w: order %d", ErrWarehouseMismatch, orderID)
		}
		if _, err := s.repo.ActiveTripForOrder(ctx, orderID); err == nil {
			return nil, fmt.Errorf("%w: order %d", ErrOrderAlreadyAssigned, orderID)
		} else if !errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("check trip for order %d: %w", orderID, err)
		}
	}

	reference := "TRIP-" + uuid.NewString()
	trip, err := domain.NewTrip(reference, input.WarehouseID, input.DriverID, input.VehicleID, input.OrderIDs, input.ActorID, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		// The repository re-checks assignment uniqueness on write, so a
		// racing create for the same order loses here, not silently.
		if errors.Is(err, ports.ErrDuplicateRecord) {
			return nil, fmt.Errorf("%w: %w", ErrOrderAlreadyAssigned, err)
		}
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return created, nil
}

// ReorderAssignments applies a new stop sequence to an undispatched trip.
func (s *Service) ReorderAssignments(ctx context.Context, tripID int64, orderIDs []int64, actorID string) (*domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	if err := trip.Resequence(orderIDs, actorID, s.now()); err != nil {
		return nil, mapError(err)
	}
	return s.save(ctx, trip)
}

// SuggestSequence proposes a stop order by nearest-neighbour over the
// stores' coordinates, starting from the trip's warehouse.
func (s *Service) SuggestSequence(ctx context.Context, tripID int64) ([]int64, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	origin, err := s.orders.Warehouse(ctx, trip.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("load warehouse %d: %w", trip.WarehouseID, err)
	}
	stops := make([]domain.Stop, 0, len(trip.Assignments))
	for _, orderID := range trip.OrderIDs() {
		snapshot, err := s.orders.Snapshot(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("load order %d: %w", orderID, err)
		}
		stops = append(stops, domain.Stop{OrderID: orderID, Location: snapshot.StoreLocation})
	}
	return domain.SuggestSequence(origin, stops), nil
}

// DispatchTrip sends the run out and dispatches every assigned order.
// Order transitions commit first; a failed transition or a lost trip
// write reverts every order already moved, so trip and orders never
// end up split.
func (s *Service) DispatchTrip(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	if err := trip.Dispatch(actorID, s.now()); err != nil {
		return nil, err
	}
	advanced := make([]int64, 0, len(trip.Assignments))
	for _, orderID := range trip.OrderIDs() {
		if err := s.orders.Transition(ctx, orderID, domain.StopDispatched, actorID); err != nil {
			s.restoreOrders(ctx, advanced, domain.StopPacked, actorID)
			return nil, fmt.Errorf("dispatch order %d: %w", orderID, err)
		}
		advanced = append(advanced, orderID)
	}
	saved, err := s.repo.Save(ctx, trip)
	if err != nil {
		s.restoreOrders(ctx, advanced, domain.StopPacked, actorID)
		return nil, fmt.Errorf("save trip %d: %w", trip.ID, err)
	}
	return saved, nil
}

// MarkStop advances one stop and its order together. The order commit
// comes first; losing the trip's version race afterwards must not
// strand the stop behind its order, so the stop mutation is re-applied
// on a fresh copy and the save retried. Concurrent marks on sibling
// stops contend on the same trip row, which makes that race routine.
func (s *Service) MarkStop(ctx context.Context, tripID, orderID int64, target domain.StopStatus, actorID string) (*domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	if err := trip.MarkStop(orderID, target, actorID, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Transition(ctx, orderID, target, actorID); err != nil {
		return nil, fmt.Errorf("advance order %d: %w", orderID, err)
	}
	for attempt := 1; ; attempt++ {
		saved, err := s.repo.Save(ctx, trip)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ports.ErrConcurrentModification) || attempt == maxSaveAttempts {
			return nil, fmt.Errorf("save trip %d: %w", trip.ID, err)
		}
		trip, err = s.repo.GetByID(ctx, tripID)
		if err != nil {
			return nil, fmt.Errorf("load trip %d: %w", tripID, err)
		}
		if stop := trip.Stop(orderID); stop != nil && stop.Status == target {
			return trip, nil
		}
		if err := trip.MarkStop(orderID, target, actorID, s.now()); err != nil {
			return nil, err
		}
	}
}

// AttachDeliveryPhotos records proof-of-delivery references on a stop.
func (s *Service) AttachDeliveryPhotos(ctx context.Context, tripID, orderID int64, refs []string, actorID string) (*domain.Trip, error) {
	if len(refs) == 0 {
		return s.repo.GetByID(ctx, tripID)
	}
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	if err := trip.AttachDeliveryPhotos(orderID, refs, actorID, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, trip)
}

// CompleteTrip closes the run once every stop is delivered or returned.
func (s *Service) CompleteTrip(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	if err := trip.Complete(actorID, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, trip)
}

// CancelTrip aborts a run before any stop progresses past dispatch and
// reverts already dispatched orders back to packed. The order reverts
// commit first; a failed revert or a lost trip write re-dispatches the
// orders already moved back, keeping both sides in lockstep.
func (s *Service) CancelTrip(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %d: %w", tripID, err)
	}
	dispatched := make([]int64, 0, len(trip.Assignments))
	for i := range trip.Assignments {
		if trip.Assignments[i].Status == domain.StopDispatched {
			dispatched = append(dispatched, trip.Assignments[i].OrderID)
		}
	}
	if err := trip.Cancel(actorID, s.now()); err != nil {
		return nil, err
	}
	reverted := make([]int64, 0, len(dispatched))
	for _, orderID := range dispatched {
		if err := s.orders.Transition(ctx, orderID, domain.StopPacked, actorID); err != nil {
			s.restoreOrders(ctx, reverted, domain.StopDispatched, actorID)
			return nil, fmt.Errorf("revert order %d: %w", orderID, err)
		}
		reverted = append(reverted, orderID)
	}
	saved, err := s.repo.Save(ctx, trip)
	if err != nil {
		s.restoreOrders(ctx, reverted, domain.StopDispatched, actorID)
		return nil, fmt.Errorf("save trip %d: %w", trip.ID, err)
	}
	return saved, nil
}

// restoreOrders best-effort moves orders back after a multi-step
// operation lost its trip write.
func (s *Service) restoreOrders(ctx context.Context, orderIDs []int64, target domain.StopStatus, actorID string) {
	for _, orderID := range orderIDs {
		_ = s.orders.Transition(ctx, orderID, target, actorID)
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Trip, error) {
	return s.repo.ListByStatus(ctx, statuses)
}

func (s *Service) ActiveTripForOrder(ctx context.Context, orderID int64) (*domain.Trip, error) {
	return s.repo.ActiveTripForOrder(ctx, orderID)
}

func (s *Service) save(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	saved, err := s.repo.Save(ctx, trip)
	if err != nil {
		return nil, fmt.Errorf("save trip %d: %w", trip.ID, err)
	}
	return saved, nil
}

var _ ports.Service = (*Service)(nil)
