package domain

import (
	"errors"
	"time"

	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

// MovementType classifies an append-only stock ledger entry.
type MovementType string

const (
	MovementOrder      MovementType = "order"
	MovementRestock    MovementType = "restock"
	MovementAdjustment MovementType = "adjustment"
	MovementDamage     MovementType = "damage"
	MovementReturn     MovementType = "return"
	MovementTransfer   MovementType = "transfer"
)

var (
	ErrInvalidQuantity   = errors.New("movement quantity must not be zero")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeStock     = errors.New("stock level cannot go negative")
	ErrUnknownMovement   = errors.New("unknown movement type")
	ErrLedgerMismatch    = errors.New("stock level does not match movement ledger")
)

// Inventory is the stock record for one (product, warehouse) pair. All stock
// changes go through Apply so that every mutation yields exactly one Movement.
type Inventory struct {
	ID            int64
	ProductID     int64
	WarehouseID   int64
	StockLevel    int64
	ReorderLevel  int64
	MaxStock      int64
	LastRestocked *time.Time
	Meta          audit.Metadata
}

// Movement is one append-only ledger entry. Movements are never edited or
// deleted; folding them from zero reproduces the stock level.
type Movement struct {
	ID            string
	InventoryID   int64
	Type          MovementType
	Quantity      int64
	PreviousStock int64
	NewStock      int64
	Reference     string
	Notes         string
	RecordedAt    time.Time
	RecordedByID  string
}

// ApplyOptions tune a single stock application.
type ApplyOptions struct {
	// AdministrativeOverride permits a negative resulting stock level. It is
	// honored only for MovementAdjustment entries; every other type rejects
	// a negative result unconditionally.
	AdministrativeOverride bool
}

func validMovementType(t MovementType) bool {
	switch t {
	case MovementOrder, MovementRestock, MovementAdjustment, MovementDamage, MovementReturn, MovementTransfer:
		return true
	default:
		return false
	}
}

// Apply mutates the stock level by the signed quantity and returns the ledger
// entry describing the change. On error the inventory is left untouched.
func (inv *Inventory) Apply(movementID string, movementType MovementType, quantity int64, reference, notes, actorID string, now time.Time, opts ApplyOptions) (Movement, error) {
	if !validMovementType(movementType) {
		return Movement{}, ErrUnknownMovement
	}
	if quantity == 0 {
		return Movement{}, ErrInvalidQuantity
	}
	next := inv.StockLevel + quantity
	if next < 0 {
		if movementType == MovementOrder {
			return Movement{}, ErrInsufficientStock
		}
		if movementType != MovementAdjustment || !opts.AdministrativeOverride {
			return Movement{}, ErrNegativeStock
		}
	}
	movement := Movement{
		ID:            movementID,
		InventoryID:   inv.ID,
		Type:          movementType,
		Quantity:      quantity,
		PreviousStock: inv.StockLevel,
		NewStock:      next,
		Reference:     reference,
		Notes:         notes,
		RecordedAt:    now,
		RecordedByID:  actorID,
	}
	inv.StockLevel = next
	if movementType == MovementRestock {
		restockedAt := now
		inv.LastRestocked = &restockedAt
	}
	inv.Meta.Touch(actorID, now)
	return movement, nil
}

// BelowReorderLevel reports whether the record needs replenishment.
func (inv *Inventory) BelowReorderLevel() bool {
	return inv.StockLevel <= inv.ReorderLevel
}

// VerifyAgainst folds the given movements from zero and checks the identity
// with the stored stock level. Movements must belong to this record.
func (inv *Inventory) VerifyAgainst(movements []Movement) error {
	var folded int64
	for _, m := range movements {
		if m.NewStock != m.PreviousStock+m.Quantity {
			return ErrLedgerMismatch
		}
		folded += m.Quantity
	}
	if folded != inv.StockLevel {
		return ErrLedgerMismatch
	}
	return nil
}
