package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

// Repository is an in-memory trip store used by tests and the
// in-process wiring.
type Repository struct {
	mu               sync.RWMutex
	trips            map[int64]*domain.Trip
	nextID           int64
	nextAssignmentID int64
}

func NewRepository() *Repository {
	return &Repository{
		trips:            make(map[int64]*domain.Trip),
		nextID:           1,
		nextAssignmentID: 1,
	}
}

func (r *Repository) Create(_ context.Context, trip *domain.Trip) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check assignment uniqueness under the lock; the service's
	// pre-check and this write are separate critical sections.
	for i := range trip.Assignments {
		if r.activeTripHolds(trip.Assignments[i].OrderID) {
			return nil, fmt.Errorf("%w: order %d is on an active trip", ports.ErrDuplicateRecord, trip.Assignments[i].OrderID)
		}
	}
	clone := cloneTrip(trip)
	clone.ID = r.nextID
	r.nextID++
	for i := range clone.Assignments {
		clone.Assignments[i].ID = r.nextAssignmentID
		clone.Assignments[i].TripID = clone.ID
		r.nextAssignmentID++
	}
	r.trips[clone.ID] = clone
	return cloneTrip(clone), nil
}

func (r *Repository) Save(_ context.Context, trip *domain.Trip) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.trips[trip.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Meta.Version != trip.Meta.Version {
		return nil, ports.ErrConcurrentModification
	}
	clone := cloneTrip(trip)
	clone.Meta.Version++
	for i := range clone.Assignments {
		if clone.Assignments[i].ID == 0 {
			clone.Assignments[i].ID = r.nextAssignmentID
			clone.Assignments[i].TripID = clone.ID
			r.nextAssignmentID++
		}
	}
	r.trips[clone.ID] = clone
	return cloneTrip(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneTrip(trip), nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Trip, 0, len(r.trips))
	for _, trip := range r.trips {
		out = append(out, cloneTrip(trip))
	}
	sortByID(out)
	return out, nil
}

func (r *Repository) ListByStatus(_ context.Context, statuses []domain.Status) ([]*domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[domain.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	var out []*domain.Trip
	for _, trip := range r.trips {
		if len(wanted) > 0 {
			if _, ok := wanted[trip.Status]; !ok {
				continue
			}
		}
		out = append(out, cloneTrip(trip))
	}
	sortByID(out)
	return out, nil
}

func (r *Repository) ActiveTripForOrder(_ context.Context, orderID int64) (*domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, trip := range r.trips {
		if trip.Status != domain.StatusCreated && trip.Status != domain.StatusDispatched {
			continue
		}
		for i := range trip.Assignments {
			if trip.Assignments[i].OrderID == orderID {
				return cloneTrip(trip), nil
			}
		}
	}
	return nil, ports.ErrNotFound
}

// activeTripHolds reports whether any created or dispatched trip
// already carries the order. Callers hold r.mu.
func (r *Repository) activeTripHolds(orderID int64) bool {
	for _, trip := range r.trips {
		if trip.Status != domain.StatusCreated && trip.Status != domain.StatusDispatched {
			continue
		}
		for i := range trip.Assignments {
			if trip.Assignments[i].OrderID == orderID {
				return true
			}
		}
	}
	return false
}

func sortByID(trips []*domain.Trip) {
	sort.Slice(trips, func(i, j int) bool { return trips[i].ID < trips[j].ID })
}

func cloneTrip(t *domain.Trip) *domain.Trip {
	clone := *t
	if t.DispatchedAt != nil {
		at := *t.DispatchedAt
		clone.DispatchedAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		clone.CompletedAt = &at
	}
	clone.Assignments = make([]domain.Assignment, len(t.Assignments))
	copy(clone.Assignments, t.Assignments)
	for i := range clone.Assignments {
		if t.Assignments[i].DeliveredAt != nil {
			at := *t.Assignments[i].DeliveredAt
			clone.Assignments[i].DeliveredAt = &at
		}
		if len(t.Assignments[i].DeliveryPhotoRefs) > 0 {
			refs := make([]string, len(t.Assignments[i].DeliveryPhotoRefs))
			copy(refs, t.Assignments[i].DeliveryPhotoRefs)
			clone.Assignments[i].DeliveryPhotoRefs = refs
		}
	}
	return &clone
}

var _ ports.Repository = (*Repository)(nil)
