package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

// Status is the lifecycle state of a delivery trip.
type Status string

const (
	StatusCreated    Status = "created"
	StatusDispatched Status = "dispatched"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// StopStatus tracks an assignment through the delivery run. The values
// mirror the order statuses they drive.
type StopStatus string

const (
	StopPacked     StopStatus = "packed"
	StopDispatched StopStatus = "dispatched"
	StopInTransit  StopStatus = "in_transit"
	StopAtStore    StopStatus = "at_store"
	StopDelivered  StopStatus = "delivered"
	StopReturned   StopStatus = "returned"
)

var (
	ErrNoAssignments         = errors.New("trip has no assignments")
	ErrNoWarehouse           = errors.New("trip requires a warehouse")
	ErrTripNotEditable       = errors.New("trip can no longer be edited")
	ErrTripNotCancellable    = errors.New("trip has stops past dispatch and cannot be cancelled")
	ErrTripNotComplete       = errors.New("trip has undelivered stops")
	ErrIllegalTripTransition = errors.New("illegal trip transition")
	ErrIllegalStopTransition = errors.New("illegal stop transition")
	ErrInvalidSequence       = errors.New("sequence is not a permutation of the trip's orders")
	ErrStopNotFound          = errors.New("order is not assigned to this trip")
	ErrDuplicateOrder        = errors.New("order is already assigned to this trip")
)

var tripTransitions = map[Status][]Status{
	StatusCreated:    {StatusDispatched, StatusCancelled},
	StatusDispatched: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Stops walk the same chain their orders do; a return is only
// possible once the driver has reached the store.
var stopTransitions = map[StopStatus][]StopStatus{
	StopPacked:     {StopDispatched},
	StopDispatched: {StopInTransit},
	StopInTransit:  {StopAtStore},
	StopAtStore:    {StopDelivered, StopReturned},
	StopDelivered:  {},
	StopReturned:   {},
}

// Assignment is one stop on a trip: an order and its position in the
// delivery sequence.
type Assignment struct {
	ID                int64
	TripID            int64
	OrderID           int64
	Sequence          int
	Status            StopStatus
	Notes             string
	DeliveredAt       *time.Time
	DeliveryPhotoRefs []string
}

// Trip is a delivery run taking a set of packed orders out of one
// warehouse on a vehicle.
type Trip struct {
	ID           int64
	Reference    string
	WarehouseID  int64
	DriverID     string
	VehicleID    string
	Status       Status
	Assignments  []Assignment
	DispatchedAt *time.Time
	CompletedAt  *time.Time

	Meta audit.Metadata
}

// NewTrip creates a trip out of the given warehouse over the given
// orders, sequenced in the order they are passed.
func NewTrip(reference string, warehouseID int64, driverID, vehicleID string, orderIDs []int64, actorID string, now time.Time) (*Trip, error) {
	if warehouseID <= 0 {
		return nil, ErrNoWarehouse
	}
	if len(orderIDs) == 0 {
		return nil, ErrNoAssignments
	}
	seen := make(map[int64]struct{}, len(orderIDs))
	assignments := make([]Assignment, 0, len(orderIDs))
	for i, orderID := range orderIDs {
		if _, dup := seen[orderID]; dup {
			return nil, fmt.Errorf("%w: order %d", ErrDuplicateOrder, orderID)
		}
		seen[orderID] = struct{}{}
		assignments = append(assignments, Assignment{
			OrderID:  orderID,
			Sequence: i + 1,
			Status:   StopPacked,
		})
	}
	t := &Trip{
		Reference:   reference,
		WarehouseID: warehouseID,
		DriverID:    driverID,
		VehicleID:   vehicleID,
		Status:      StatusCreated,
		Assignments: assignments,
	}
	t.Meta.Stamp(actorID, now)
	return t, nil
}

func canTransition(table map[Status][]Status, from, to Status) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Resequence reorders the stops. The new sequence must be a permutation
// of the trip's order ids, and the trip must not have been dispatched.
func (t *Trip) Resequence(orderIDs []int64, actorID string, now time.Time) error {
	if t.Status != StatusCreated {
		return ErrTripNotEditable
	}
	if len(orderIDs) != len(t.Assignments) {
		return ErrInvalidSequence
	}
	position := make(map[int64]int, len(orderIDs))
	for i, orderID := range orderIDs {
		if _, dup := position[orderID]; dup {
			return ErrInvalidSequence
		}
		position[orderID] = i + 1
	}
	for i := range t.Assignments {
		if _, ok := position[t.Assignments[i].OrderID]; !ok {
			return ErrInvalidSequence
		}
	}
	for i := range t.Assignments {
		t.Assignments[i].Sequence = position[t.Assignments[i].OrderID]
	}
	t.Meta.Touch(actorID, now)
	return nil
}

// Dispatch sends the trip out and moves every stop to dispatched.
func (t *Trip) Dispatch(actorID string, now time.Time) error {
	if !canTransition(tripTransitions, t.Status, StatusDispatched) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTripTransition, t.Status, StatusDispatched)
	}
	t.Status = StatusDispatched
	at := now
	t.DispatchedAt = &at
	for i := range t.Assignments {
		t.Assignments[i].Status = StopDispatched
	}
	t.Meta.Touch(actorID, now)
	return nil
}

// MarkStop advances a single stop to the target status.
func (t *Trip) MarkStop(orderID int64, target StopStatus, actorID string, now time.Time) error {
	if t.Status != StatusDispatched {
		return fmt.Errorf("%w: trip is %s", ErrIllegalStopTransition, t.Status)
	}
	stop := t.assignment(orderID)
	if stop == nil {
		return ErrStopNotFound
	}
	allowed := false
	for _, next := range stopTransitions[stop.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalStopTransition, stop.Status, target)
	}
	stop.Status = target
	if target == StopDelivered {
		at := now
		stop.DeliveredAt = &at
	}
	t.Meta.Touch(actorID, now)
	return nil
}

// AttachDeliveryPhotos records proof-of-delivery references on a stop.
func (t *Trip) AttachDeliveryPhotos(orderID int64, refs []string, actorID string, now time.Time) error {
	stop := t.assignment(orderID)
	if stop == nil {
		return ErrStopNotFound
	}
	stop.DeliveryPhotoRefs = append(stop.DeliveryPhotoRefs, refs...)
	t.Meta.Touch(actorID, now)
	return nil
}

// CanComplete reports whether every stop is delivered or returned.
func (t *Trip) CanComplete() bool {
	for i := range t.Assignments {
		status := t.Assignments[i].Status
		if status != StopDelivered && status != StopReturned {
			return false
		}
	}
	return true
}

// Complete closes the trip once every stop has a terminal outcome.
func (t *Trip) Complete(actorID string, now time.Time) error {
	if !canTransition(tripTransitions, t.Status, StatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTripTransition, t.Status, StatusCompleted)
	}
	if !t.CanComplete() {
		return ErrTripNotComplete
	}
	t.Status = StatusCompleted
	at := now
	t.CompletedAt = &at
	t.Meta.Touch(actorID, now)
	return nil
}

// Cancel aborts the trip. Allowed only while no stop has progressed
// past dispatch.
func (t *Trip) Cancel(actorID string, now time.Time) error {
	if !canTransition(tripTransitions, t.Status, StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTripTransition, t.Status, StatusCancelled)
	}
	for i := range t.Assignments {
		switch t.Assignments[i].Status {
		case StopPacked, StopDispatched:
		default:
			return ErrTripNotCancellable
		}
	}
	t.Status = StatusCancelled
	t.Meta.Touch(actorID, now)
	return nil
}

// OrderIDs returns the trip's orders in sequence order.
func (t *Trip) OrderIDs() []int64 {
	ordered := t.SortedAssignments()
	out := make([]int64, 0, len(ordered))
	for i := range ordered {
		out = append(out, ordered[i].OrderID)
	}
	return out
}

// SortedAssignments returns the stops ordered by sequence without
// mutating the trip.
func (t *Trip) SortedAssignments() []Assignment {
	out := make([]Assignment, len(t.Assignments))
	copy(out, t.Assignments)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// Stop returns the assignment for the given order, or nil when the
// order is not on this trip.
func (t *Trip) Stop(orderID int64) *Assignment {
	return t.assignment(orderID)
}

func (t *Trip) assignment(orderID int64) *Assignment {
	for i := range t.Assignments {
		if t.Assignments[i].OrderID == orderID {
			return &t.Assignments[i]
		}
	}
	return nil
}
