package ports

import (
	"context"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
)

// StockLine identifies one quantity against a (product, warehouse) record,
// used by batch reservations and releases.
type StockLine struct {
	ProductID   int64
	WarehouseID int64
	Quantity    int64
}

// AdjustInput carries a manual stock correction.
type AdjustInput struct {
	InventoryID int64
	Delta       int64
	Type        domain.MovementType
	Reference   string
	Notes       string
	ActorID     string
	// AdministrativeOverride is the documented escape hatch letting an
	// adjustment push the level negative.
	AdministrativeOverride bool
}

// CreateRecordInput seeds a new stock record.
type CreateRecordInput struct {
	ProductID    int64
	WarehouseID  int64
	StockLevel   int64
	ReorderLevel int64
	MaxStock     int64
	ActorID      string
}

// Service is the inventory ledger use-case surface.
type Service interface {
	CreateRecord(ctx context.Context, input CreateRecordInput) (*domain.Inventory, error)
	Reserve(ctx context.Context, productID, warehouseID, quantity int64, reference, actorID string) (*domain.Inventory, error)
	ReserveBatch(ctx context.Context, lines []StockLine, reference, actorID string) error
	ReleaseBatch(ctx context.Context, lines []StockLine, reference, actorID string) error
	Adjust(ctx context.Context, input AdjustInput) (*domain.Inventory, error)
	Restock(ctx context.Context, productID, warehouseID, quantity int64, reference, actorID string) (*domain.Inventory, error)
	VerifyLedger(ctx context.Context, inventoryID int64) error
	LowStock(ctx context.Context) ([]*domain.Inventory, error)
	GetByID(ctx context.Context, id int64) (*domain.Inventory, error)
	Movements(ctx context.Context, inventoryID int64) ([]domain.Movement, error)
	List(ctx context.Context) ([]*domain.Inventory, error)
}
