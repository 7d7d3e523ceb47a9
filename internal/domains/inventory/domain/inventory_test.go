package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func record(level int64) *Inventory {
	return &Inventory{ID: 7, ProductID: 1, WarehouseID: 2, StockLevel: level, ReorderLevel: 3}
}

func TestApply_RecordsLedgerEntry(t *testing.T) {
	inv := record(10)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	movement, err := inv.Apply("m-1", MovementOrder, -4, "ORD-1", "", "picker", now, ApplyOptions{})
	require.NoError(t, err)

	require.EqualValues(t, 6, inv.StockLevel)
	require.Equal(t, "m-1", movement.ID)
	require.EqualValues(t, 7, movement.InventoryID)
	require.Equal(t, MovementOrder, movement.Type)
	require.EqualValues(t, -4, movement.Quantity)
	require.EqualValues(t, 10, movement.PreviousStock)
	require.EqualValues(t, 6, movement.NewStock)
	require.Equal(t, "ORD-1", movement.Reference)
	require.Equal(t, "picker", movement.RecordedByID)
	require.Equal(t, now, movement.RecordedAt)
}

func TestApply_RejectsZeroQuantity(t *testing.T) {
	inv := record(10)

	_, err := inv.Apply("m-1", MovementAdjustment, 0, "", "", "ops", time.Now(), ApplyOptions{})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.EqualValues(t, 10, inv.StockLevel)
}

func TestApply_RejectsUnknownType(t *testing.T) {
	inv := record(10)

	_, err := inv.Apply("m-1", MovementType("teleport"), 1, "", "", "ops", time.Now(), ApplyOptions{})
	require.ErrorIs(t, err, ErrUnknownMovement)
}

func TestApply_OrderOverdraftIsInsufficientStock(t *testing.T) {
	inv := record(2)

	_, err := inv.Apply("m-1", MovementOrder, -3, "ORD-1", "", "picker", time.Now(), ApplyOptions{})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.EqualValues(t, 2, inv.StockLevel)
}

func TestApply_NonOrderOverdraftIsNegativeStock(t *testing.T) {
	inv := record(2)

	_, err := inv.Apply("m-1", MovementDamage, -3, "", "breakage", "ops", time.Now(), ApplyOptions{})
	require.ErrorIs(t, err, ErrNegativeStock)
}

func TestApply_OverrideOnlyCoversAdjustments(t *testing.T) {
	opts := ApplyOptions{AdministrativeOverride: true}

	inv := record(2)
	_, err := inv.Apply("m-1", MovementAdjustment, -5, "audit", "shrinkage", "ops", time.Now(), opts)
	require.NoError(t, err)
	require.EqualValues(t, -3, inv.StockLevel)

	inv = record(2)
	_, err = inv.Apply("m-2", MovementDamage, -5, "", "", "ops", time.Now(), opts)
	require.ErrorIs(t, err, ErrNegativeStock)

	inv = record(2)
	_, err = inv.Apply("m-3", MovementOrder, -5, "ORD-1", "", "ops", time.Now(), opts)
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestApply_RestockStampsLastRestocked(t *testing.T) {
	inv := record(1)
	require.Nil(t, inv.LastRestocked)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := inv.Apply("m-1", MovementRestock, 20, "PO-44", "", "ops", now, ApplyOptions{})
	require.NoError(t, err)
	require.NotNil(t, inv.LastRestocked)
	require.Equal(t, now, *inv.LastRestocked)
}

func TestBelowReorderLevel(t *testing.T) {
	inv := record(4)
	require.False(t, inv.BelowReorderLevel())

	inv.StockLevel = 3
	require.True(t, inv.BelowReorderLevel())

	inv.StockLevel = 0
	require.True(t, inv.BelowReorderLevel())
}

func TestVerifyAgainst(t *testing.T) {
	inv := record(6)
	now := time.Now()
	movements := []Movement{
		{ID: "m-1", InventoryID: 7, Type: MovementAdjustment, Quantity: 10, PreviousStock: 0, NewStock: 10, RecordedAt: now},
		{ID: "m-2", InventoryID: 7, Type: MovementOrder, Quantity: -4, PreviousStock: 10, NewStock: 6, RecordedAt: now},
	}
	require.NoError(t, inv.VerifyAgainst(movements))

	inv.StockLevel = 5
	require.ErrorIs(t, inv.VerifyAgainst(movements), ErrLedgerMismatch)
}

func TestVerifyAgainst_BrokenEntry(t *testing.T) {
	inv := record(3)
	movements := []Movement{
		{ID: "m-1", InventoryID: 7, Type: MovementAdjustment, Quantity: 3, PreviousStock: 1, NewStock: 3},
	}
	require.ErrorIs(t, inv.VerifyAgainst(movements), ErrLedgerMismatch)
}
