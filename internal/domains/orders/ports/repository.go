package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
)

var (
	ErrNotFound               = errors.New("order not found")
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// Repository persists orders, their items, and the transition audit trail.
// Save is optimistic: the stored version must match the aggregate's version.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByStore(ctx context.Context, storeID int64) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
	AuditTrail(ctx context.Context, orderID int64) ([]domain.AuditEntry, error)
}
