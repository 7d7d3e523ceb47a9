package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
)

var (
	ErrNotFound               = errors.New("inventory record not found")
	ErrDuplicateRecord        = errors.New("inventory record already exists for product and warehouse")
	ErrConcurrentModification = errors.New("inventory record was modified concurrently")
)

// Repository persists inventory records and their movement ledger. Updates
// are optimistic: the stored version must match the aggregate's version, and
// movements are appended in the same transaction as the level change.
type Repository interface {
	Create(ctx context.Context, inv *domain.Inventory) (*domain.Inventory, error)
	GetByID(ctx context.Context, id int64) (*domain.Inventory, error)
	GetByProductWarehouse(ctx context.Context, productID, warehouseID int64) (*domain.Inventory, error)
	// Update persists the record iff the version matches, appending the
	// movements atomically with the level change.
	Update(ctx context.Context, inv *domain.Inventory, movements ...domain.Movement) (*domain.Inventory, error)
	// UpdateBatch applies several record updates and their movements in one
	// transaction; either every row commits or none does.
	UpdateBatch(ctx context.Context, invs []*domain.Inventory, movements []domain.Movement) error
	Movements(ctx context.Context, inventoryID int64) ([]domain.Movement, error)
	List(ctx context.Context) ([]*domain.Inventory, error)
}
