package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

type pairKey struct {
	productID   int64
	warehouseID int64
}

// Repository is an in-memory inventory persistence adapter. A single mutex
// makes every update, batch included, one atomic critical section.
type Repository struct {
	mu        sync.RWMutex
	records   map[int64]*domain.Inventory
	byPair    map[pairKey]int64
	movements map[int64][]domain.Movement
	nextID    int64
}

func NewRepository() *Repository {
	return &Repository{
		records:   map[int64]*domain.Inventory{},
		byPair:    map[pairKey]int64{},
		movements: map[int64][]domain.Movement{},
	}
}

func (r *Repository) Create(_ context.Context, inv *domain.Inventory) (*domain.Inventory, error) {
	if inv == nil {
		return nil, errors.New("inventory is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{inv.ProductID, inv.WarehouseID}
	if _, exists := r.byPair[key]; exists {
		return nil, ports.ErrDuplicateRecord
	}
	clone := *inv
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if clone.Meta.Version == 0 {
		clone.Meta.Version = 1
	}
	r.records[clone.ID] = &clone
	r.byPair[key] = clone.ID
	result := clone
	return &result, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.records[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *inv
	return &clone, nil
}

func (r *Repository) GetByProductWarehouse(_ context.Context, productID, warehouseID int64) (*domain.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey{productID, warehouseID}]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *r.records[id]
	return &clone, nil
}

func (r *Repository) Update(_ context.Context, inv *domain.Inventory, movements ...domain.Movement) (*domain.Inventory, error) {
	if inv == nil {
		return nil, errors.New("inventory is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	updated, err := r.updateLocked(inv, movements)
	if err != nil {
		return nil, err
	}
	clone := *updated
	return &clone, nil
}

func (r *Repository) UpdateBatch(_ context.Context, invs []*domain.Inventory, movements []domain.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Dry-run the version checks first so a late conflict cannot leave a
	// partially applied batch behind.
	for _, inv := range invs {
		stored, ok := r.records[inv.ID]
		if !ok {
			return ports.ErrNotFound
		}
		if stored.Meta.Version != inv.Meta.Version {
			return ports.ErrConcurrentModification
		}
	}
	byRecord := map[int64][]domain.Movement{}
	for _, m := range movements {
		byRecord[m.InventoryID] = append(byRecord[m.InventoryID], m)
	}
	for _, inv := range invs {
		if _, err := r.updateLocked(inv, byRecord[inv.ID]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) updateLocked(inv *domain.Inventory, movements []domain.Movement) (*domain.Inventory, error) {
	stored, ok := r.records[inv.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Meta.Version != inv.Meta.Version {
		return nil, ports.ErrConcurrentModification
	}
	clone := *inv
	clone.Meta.Version++
	r.records[inv.ID] = &clone
	r.movements[inv.ID] = append(r.movements[inv.ID], movements...)
	return &clone, nil
}

func (r *Repository) Movements(_ context.Context, inventoryID int64) ([]domain.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.records[inventoryID]; !ok {
		return nil, ports.ErrNotFound
	}
	list := make([]domain.Movement, len(r.movements[inventoryID]))
	copy(list, r.movements[inventoryID])
	return list, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Inventory, 0, len(r.records))
	for _, inv := range r.records {
		clone := *inv
		list = append(list, &clone)
	}
	return list, nil
}
