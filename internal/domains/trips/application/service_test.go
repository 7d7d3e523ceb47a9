package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/adapters/memory"
	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

type transitionCall struct {
	orderID int64
	target  domain.StopStatus
}

// fakeOrders is a hand-rolled order gateway capturing every transition.
type fakeOrders struct {
	snapshots    map[int64]*ports.OrderSnapshot
	warehouseLoc *domain.Point
	transitions  []transitionCall
	failOn       int64
	failErr      error
}

func (f *fakeOrders) Snapshot(_ context.Context, orderID int64) (*ports.OrderSnapshot, error) {
	snapshot, ok := f.snapshots[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return snapshot, nil
}

func (f *fakeOrders) Warehouse(_ context.Context, _ int64) (*domain.Point, error) {
	return f.warehouseLoc, nil
}

func (f *fakeOrders) Transition(_ context.Context, orderID int64, target domain.StopStatus, _ string) error {
	if f.failOn != 0 && orderID == f.failOn {
		return f.failErr
	}
	f.transitions = append(f.transitions, transitionCall{orderID: orderID, target: target})
	return nil
}

func packedOrders(ids ...int64) *fakeOrders {
	f := &fakeOrders{snapshots: map[int64]*ports.OrderSnapshot{}}
	for _, id := range ids {
		f.snapshots[id] = &ports.OrderSnapshot{ID: id, StoreID: id, WarehouseID: 1, Ready: true}
	}
	return f
}

func newTripService(t *testing.T, orders *fakeOrders) *Service {
	t.Helper()
	return NewService(memory.NewRepository(), orders)
}

func createTrip(t *testing.T, svc *Service, orderIDs ...int64) *domain.Trip {
	t.Helper()
	trip, err := svc.CreateTrip(context.Background(), ports.CreateTripInput{
		WarehouseID: 1,
		DriverID:    "driver-1",
		VehicleID:   "van-7",
		OrderIDs:    orderIDs,
		ActorID:     "dispatcher",
	})
	require.NoError(t, err)
	return trip
}

// failingRepo wraps a real repository and fails every save once armed.
type failingRepo struct {
	ports.Repository
	saveErr error
}

func (r *failingRepo) Save(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	return r.Repository.Save(ctx, trip)
}

// contendedRepo loses its first save after being armed: the race
// closure commits a competing write before the delegated save runs.
type contendedRepo struct {
	ports.Repository
	race func()
}

func (r *contendedRepo) Save(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	if r.race != nil {
		race := r.race
		r.race = nil
		race()
	}
	return r.Repository.Save(ctx, trip)
}

// blindRepo answers active-trip lookups with not found, leaving the
// write path as the only guard on assignment uniqueness.
type blindRepo struct {
	ports.Repository
}

func (r *blindRepo) ActiveTripForOrder(context.Context, int64) (*domain.Trip, error) {
	return nil, ports.ErrNotFound
}

func TestCreateTrip(t *testing.T) {
	svc := newTripService(t, packedOrders(1, 2))

	trip := createTrip(t, svc, 1, 2)
	require.NotZero(t, trip.ID)
	require.Contains(t, trip.Reference, "TRIP-")
	require.EqualValues(t, 1, trip.WarehouseID)
	require.Equal(t, []int64{1, 2}, trip.OrderIDs())
}

func TestCreateTrip_RejectsUnpackedOrder(t *testing.T) {
	orders := packedOrders(1)
	orders.snapshots[2] = &ports.OrderSnapshot{ID: 2, WarehouseID: 1, Ready: false}
	svc := newTripService(t, orders)

	_, err := svc.CreateTrip(context.Background(), ports.CreateTripInput{
		WarehouseID: 1, OrderIDs: []int64{1, 2}, ActorID: "dispatcher",
	})
	require.ErrorIs(t, err, ErrOrderNotReady)
}

func TestCreateTrip_RejectsUnknownOrder(t *testing.T) {
	svc := newTripService(t, packedOrders(1))

	_, err := svc.CreateTrip(context.Background(), ports.CreateTripInput{
		WarehouseID: 1, OrderIDs: []int64{7}, ActorID: "dispatcher",
	})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCreateTrip_RejectsWarehouseMismatch(t *testing.T) {
	orders := packedOrders(1)
	orders.snapshots[1].WarehouseID = 9
	svc := newTripService(t, orders)

	_, err := svc.CreateTrip(context.Background(), ports.CreateTripInput{
		WarehouseID: 1, OrderIDs: []int64{1}, ActorID: "dispatcher",
	})
	require.ErrorIs(t, err, ErrWarehouseMismatch)
}

func TestCreateTrip_RequiresWarehouse(t *testing.T) {
	orders := packedOrders(1)
	orders.snapshots[1].WarehouseID = 0
	svc := newTripService(t, orders)

	_, err := svc.CreateTrip(context.Background(), ports.CreateTripInput{
		OrderIDs: []int64{1}, ActorID: "dispatcher",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateTrip_RejectsOrderOnActiveTrip(t *testing.T) {
	svc := newTripService(t, packedOrders(1, 2))
	createTrip(t, svc, 1)

	_, err := svc.CreateTrip(context.Background(), ports.CreateTripInput{
		WarehouseID: 1, OrderIDs: []int64{1, 2}, ActorID: "dispatcher",
	})
	require.ErrorIs(t, err, ErrOrderAlreadyAssigned)
}

func TestCreateTrip_RacingCreateLosesOnWrite(t *testing.T) {
	orders := packedOrders(1)
	inner := memory.NewRepository()
	createTrip(t, NewService(inner, orders), 1)

	// A second create that read the assignment table before the first
	// committed still fails, on the repository's write-path check.
	racer := NewService(&blindRepo{Repository: inner}, orders)
	_, err := racer.CreateTrip(context.Background(), ports.CreateTripInput{
		WarehouseID: 1, OrderIDs: []int64{1}, ActorID: "dispatcher",
	})
	require.ErrorIs(t, err, ErrOrderAlreadyAssigned)
	require.ErrorIs(t, err, ports.ErrDuplicateRecord)
}

func TestDispatchTrip_AdvancesEveryOrder(t *testing.T) {
	orders := packedOrders(1, 2)
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1, 2)

	dispatched, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDispatched, dispatched.Status)
	require.Equal(t, []transitionCall{
		{orderID: 1, target: domain.StopDispatched},
		{orderID: 2, target: domain.StopDispatched},
	}, orders.transitions)
}

func TestDispatchTrip_GatewayFailureRevertsAdvancedOrders(t *testing.T) {
	orders := packedOrders(1, 2)
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1, 2)

	orders.failOn = 2
	orders.failErr = context.DeadlineExceeded
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, []transitionCall{
		{orderID: 1, target: domain.StopDispatched},
		{orderID: 1, target: domain.StopPacked},
	}, orders.transitions)

	reloaded, err := svc.GetByID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCreated, reloaded.Status)
}

func TestDispatchTrip_SaveFailureRevertsOrders(t *testing.T) {
	orders := packedOrders(1, 2)
	repo := &failingRepo{Repository: memory.NewRepository()}
	svc := NewService(repo, orders)
	trip := createTrip(t, svc, 1, 2)

	repo.saveErr = errors.New("storage offline")
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.Error(t, err)
	require.Equal(t, []transitionCall{
		{orderID: 1, target: domain.StopPacked},
		{orderID: 2, target: domain.StopPacked},
	}, orders.transitions[len(orders.transitions)-2:])

	reloaded, err := svc.GetByID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCreated, reloaded.Status)
}

func TestMarkStop_ForwardsToGateway(t *testing.T) {
	orders := packedOrders(1)
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1)
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)

	updated, err := svc.MarkStop(context.Background(), trip.ID, 1, domain.StopInTransit, "driver-1")
	require.NoError(t, err)
	require.Equal(t, domain.StopInTransit, updated.Assignments[0].Status)
	require.Equal(t, transitionCall{orderID: 1, target: domain.StopInTransit}, orders.transitions[len(orders.transitions)-1])
}

func TestMarkStop_GatewayFailureNotPersisted(t *testing.T) {
	orders := packedOrders(1)
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1)
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)

	orders.failOn = 1
	orders.failErr = context.DeadlineExceeded
	_, err = svc.MarkStop(context.Background(), trip.ID, 1, domain.StopInTransit, "driver-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	reloaded, err := svc.GetByID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StopDispatched, reloaded.Assignments[0].Status)
}

func TestMarkStop_RetriesLostVersionRace(t *testing.T) {
	orders := packedOrders(1, 2)
	inner := memory.NewRepository()
	repo := &contendedRepo{Repository: inner}
	svc := NewService(repo, orders)
	trip := createTrip(t, svc, 1, 2)
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)

	// A second driver marks the sibling stop between this call's load
	// and its save, bumping the trip version underneath it.
	repo.race = func() {
		current, err := inner.GetByID(context.Background(), trip.ID)
		require.NoError(t, err)
		require.NoError(t, current.MarkStop(2, domain.StopInTransit, "driver-2", time.Now()))
		_, err = inner.Save(context.Background(), current)
		require.NoError(t, err)
	}

	updated, err := svc.MarkStop(context.Background(), trip.ID, 1, domain.StopInTransit, "driver-1")
	require.NoError(t, err)
	require.Equal(t, domain.StopInTransit, updated.Stop(1).Status)
	require.Equal(t, domain.StopInTransit, updated.Stop(2).Status)
	// The order advanced exactly once despite the retried save.
	require.Equal(t, transitionCall{orderID: 1, target: domain.StopInTransit}, orders.transitions[len(orders.transitions)-1])
	require.Len(t, orders.transitions, 3)
}

func TestReorderAssignments(t *testing.T) {
	svc := newTripService(t, packedOrders(1, 2, 3))
	trip := createTrip(t, svc, 1, 2, 3)

	updated, err := svc.ReorderAssignments(context.Background(), trip.ID, []int64{3, 1, 2}, "dispatcher")
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1, 2}, updated.OrderIDs())

	_, err = svc.ReorderAssignments(context.Background(), trip.ID, []int64{3, 3, 2}, "dispatcher")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSuggestSequence_UsesWarehouseOrigin(t *testing.T) {
	orders := packedOrders(1, 2)
	orders.warehouseLoc = &domain.Point{Lat: 0, Lng: 0}
	orders.snapshots[1].StoreLocation = &domain.Point{Lat: 5, Lng: 0}
	orders.snapshots[2].StoreLocation = &domain.Point{Lat: 1, Lng: 0}
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1, 2)

	sequence, err := svc.SuggestSequence(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, sequence)
}

func TestCompleteTrip(t *testing.T) {
	svc := newTripService(t, packedOrders(1))
	trip := createTrip(t, svc, 1)
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)

	_, err = svc.CompleteTrip(context.Background(), trip.ID, "dispatcher")
	require.ErrorIs(t, err, domain.ErrTripNotComplete)

	for _, status := range []domain.StopStatus{domain.StopInTransit, domain.StopAtStore, domain.StopDelivered} {
		_, err = svc.MarkStop(context.Background(), trip.ID, 1, status, "driver-1")
		require.NoError(t, err)
	}

	completed, err := svc.CompleteTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
}

func TestCancelTrip_RevertsDispatchedOrders(t *testing.T) {
	orders := packedOrders(1, 2)
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1, 2)
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)

	cancelled, err := svc.CancelTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Equal(t, []transitionCall{
		{orderID: 1, target: domain.StopPacked},
		{orderID: 2, target: domain.StopPacked},
	}, orders.transitions[len(orders.transitions)-2:])
}

func TestCancelTrip_SaveFailureRedispatchesOrders(t *testing.T) {
	orders := packedOrders(1, 2)
	repo := &failingRepo{Repository: memory.NewRepository()}
	svc := NewService(repo, orders)
	trip := createTrip(t, svc, 1, 2)
	_, err := svc.DispatchTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)

	repo.saveErr = errors.New("storage offline")
	_, err = svc.CancelTrip(context.Background(), trip.ID, "dispatcher")
	require.Error(t, err)
	require.Equal(t, []transitionCall{
		{orderID: 1, target: domain.StopDispatched},
		{orderID: 2, target: domain.StopDispatched},
	}, orders.transitions[len(orders.transitions)-2:])

	reloaded, err := svc.GetByID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDispatched, reloaded.Status)
}

func TestCancelTrip_BeforeDispatchSkipsGateway(t *testing.T) {
	orders := packedOrders(1)
	svc := newTripService(t, orders)
	trip := createTrip(t, svc, 1)

	_, err := svc.CancelTrip(context.Background(), trip.ID, "dispatcher")
	require.NoError(t, err)
	require.Empty(t, orders.transitions)
}

func TestAttachDeliveryPhotos(t *testing.T) {
	svc := newTripService(t, packedOrders(1))
	trip := createTrip(t, svc, 1)

	updated, err := svc.AttachDeliveryPhotos(context.Background(), trip.ID, 1, []string{"pod/a.jpg"}, "driver-1")
	require.NoError(t, err)
	require.Equal(t, []string{"pod/a.jpg"}, updated.Assignments[0].DeliveryPhotoRefs)

	// Empty refs is a no-op returning the stored trip.
	unchanged, err := svc.AttachDeliveryPhotos(context.Background(), trip.ID, 1, nil, "driver-1")
	require.NoError(t, err)
	require.Equal(t, updated.Meta.Version, unchanged.Meta.Version)
}
