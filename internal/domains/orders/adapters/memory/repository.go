package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	audit      map[int64][]domain.AuditEntry
	nextID     int64
	nextItemID int64
}

func NewRepository() *Repository {
	return &Repository{
		orders: map[int64]*domain.Order{},
		audit:  map[int64][]domain.AuditEntry{},
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneOrder(order)
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	for i := range clone.Items {
		if clone.Items[i].ID == 0 {
			r.nextItemID++
			clone.Items[i].ID = r.nextItemID
		}
		clone.Items[i].OrderID = clone.ID
	}
	if clone.Meta.Version == 0 {
		clone.Meta.Version = 1
	}
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Meta.Version != order.Meta.Version {
		return nil, ports.ErrConcurrentModification
	}
	clone := cloneOrder(order)
	clone.Meta.Version++
	for i := range clone.Items {
		if clone.Items[i].ID == 0 {
			r.nextItemID++
			clone.Items[i].ID = r.nextItemID
		}
		clone.Items[i].OrderID = clone.ID
	}
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) ListByStore(_ context.Context, storeID int64) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.StoreID == storeID {
			list = append(list, cloneOrder(order))
		}
	}
	sortByID(list)
	return list, nil
}

func (r *Repository) ListByStatus(_ context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := map[domain.Status]bool{}
	for _, s := range statuses {
		wanted[s] = true
	}
	var list []*domain.Order
	for _, order := range r.orders {
		if wanted[order.Status] {
			list = append(list, cloneOrder(order))
		}
	}
	sortByID(list)
	return list, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		list = append(list, cloneOrder(order))
	}
	sortByID(list)
	return list, nil
}

func (r *Repository) AppendAudit(_ context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.audit[entry.OrderID]) + 1)
	r.audit[entry.OrderID] = append(r.audit[entry.OrderID], entry)
	return nil
}

func (r *Repository) AuditTrail(_ context.Context, orderID int64) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trail := make([]domain.AuditEntry, len(r.audit[orderID]))
	copy(trail, r.audit[orderID])
	return trail, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = append([]domain.Item{}, order.Items...)
	if order.PaidAt != nil {
		paidAt := *order.PaidAt
		clone.PaidAt = &paidAt
	}
	return &clone
}

func sortByID(list []*domain.Order) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
