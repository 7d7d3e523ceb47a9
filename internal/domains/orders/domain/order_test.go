package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func orderItems() []Item {
	return []Item{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromFloat(10)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromFloat(15)},
	}
}

func TestNewOrder_ComputesTotals(t *testing.T) {
	order, err := NewOrder(1, 1, "agent-7", orderItems(), decimal.NewFromFloat(0.12))
	require.NoError(t, err)

	require.True(t, order.Subtotal.Equal(decimal.NewFromFloat(35)), "subtotal %s", order.Subtotal)
	require.True(t, order.Tax.Equal(decimal.NewFromFloat(4.2)), "tax %s", order.Tax)
	require.True(t, order.Total.Equal(decimal.NewFromFloat(39.2)), "total %s", order.Total)
	require.Equal(t, StatusPending, order.Status)
}

func TestNewOrder_Validation(t *testing.T) {
	_, err := NewOrder(0, 1, "", orderItems(), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidStore)

	_, err = NewOrder(1, 0, "", orderItems(), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidWarehouse)

	_, err = NewOrder(1, 1, "", nil, decimal.Zero)
	require.ErrorIs(t, err, ErrNoItems)

	_, err = NewOrder(1, 1, "", []Item{{ProductID: 1, Quantity: 0, UnitPrice: decimal.NewFromFloat(1)}}, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder(1, 1, "", []Item{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromFloat(-1)}}, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidUnitPrice)
}

func TestTransition_HappyPath(t *testing.T) {
	order, err := NewOrder(1, 1, "", orderItems(), decimal.Zero)
	require.NoError(t, err)

	for _, target := range []Status{StatusConfirmed, StatusPacked, StatusDispatched, StatusInTransit, StatusAtStore, StatusDelivered} {
		require.NoError(t, order.Transition(target))
		require.Equal(t, target, order.Status)
	}
}

func TestTransition_RejectsIllegalEdges(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{StatusPending, StatusPacked},
		{StatusPending, StatusDelivered},
		{StatusConfirmed, StatusDispatched},
		{StatusDelivered, StatusDelivered},
		{StatusCancelled, StatusConfirmed},
		{StatusReturned, StatusPending},
	}
	for _, tc := range cases {
		order := &Order{Status: tc.from}
		err := order.Transition(tc.to)
		require.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", tc.from, tc.to)
		require.Equal(t, tc.from, order.Status)
	}
}

func TestTransition_DispatchedRevertsToPacked(t *testing.T) {
	order := &Order{Status: StatusDispatched}
	require.NoError(t, order.Transition(StatusPacked))
	require.Equal(t, StatusPacked, order.Status)
}

func TestTransition_UnknownStatus(t *testing.T) {
	order := &Order{Status: StatusPending}
	require.ErrorIs(t, order.Transition(Status("shipped")), ErrUnknownStatus)
}

func TestReplaceItems_LockedAfterConfirm(t *testing.T) {
	order, err := NewOrder(1, 1, "", orderItems(), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, order.Transition(StatusConfirmed))

	err = order.ReplaceItems([]Item{{ProductID: 3, Quantity: 1, UnitPrice: decimal.NewFromFloat(5)}}, decimal.Zero)
	require.ErrorIs(t, err, ErrItemsLocked)
	require.Len(t, order.Items, 2)
}

func TestReplaceItems_RecomputesTotals(t *testing.T) {
	order, err := NewOrder(1, 1, "", orderItems(), decimal.Zero)
	require.NoError(t, err)

	err = order.ReplaceItems([]Item{{ProductID: 3, Quantity: 4, UnitPrice: decimal.NewFromFloat(2.5)}}, decimal.Zero)
	require.NoError(t, err)
	require.True(t, order.Total.Equal(decimal.NewFromFloat(10)))
}

func TestAtOrPast(t *testing.T) {
	require.True(t, StatusPacked.AtOrPast(StatusPacked))
	require.True(t, StatusDelivered.AtOrPast(StatusPacked))
	require.False(t, StatusConfirmed.AtOrPast(StatusPacked))
	require.False(t, StatusCancelled.AtOrPast(StatusPacked))
	require.False(t, StatusReturned.AtOrPast(StatusPending))
}

func TestStockDecremented(t *testing.T) {
	require.False(t, (&Order{Status: StatusConfirmed}).StockDecremented())
	require.True(t, (&Order{Status: StatusPacked}).StockDecremented())
	require.True(t, (&Order{Status: StatusInTransit}).StockDecremented())
}

func TestTerminal(t *testing.T) {
	require.True(t, StatusDelivered.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.True(t, StatusReturned.Terminal())
	require.False(t, StatusAtStore.Terminal())
}
