package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-distribution-api/internal/domains/refdata/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
)

var _ ports.Lookup = (*Lookup)(nil)

// Lookup is an in-memory reference data adapter, seeded at boot or in tests.
type Lookup struct {
	mu         sync.RWMutex
	stores     map[int64]*domain.Store
	products   map[int64]*domain.Product
	warehouses map[int64]*domain.Warehouse
}

func NewLookup() *Lookup {
	return &Lookup{
		stores:     map[int64]*domain.Store{},
		products:   map[int64]*domain.Product{},
		warehouses: map[int64]*domain.Warehouse{},
	}
}

func (l *Lookup) SeedStore(store domain.Store) {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := store
	l.stores[store.ID] = &clone
}

func (l *Lookup) SeedProduct(product domain.Product) {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := product
	l.products[product.ID] = &clone
}

func (l *Lookup) SeedWarehouse(warehouse domain.Warehouse) {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := warehouse
	l.warehouses[warehouse.ID] = &clone
}

func (l *Lookup) Store(_ context.Context, id int64) (*domain.Store, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	store, ok := l.stores[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *store
	return &clone, nil
}

func (l *Lookup) Product(_ context.Context, id int64) (*domain.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	product, ok := l.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (l *Lookup) Warehouse(_ context.Context, id int64) (*domain.Warehouse, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	warehouse, ok := l.warehouses[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *warehouse
	return &clone, nil
}
