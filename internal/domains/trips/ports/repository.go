package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrDuplicateRecord        = errors.New("record already exists")
)

// Repository persists trips together with their assignments.
type Repository interface {
	// Create stores a new trip. An order already assigned to another
	// active trip fails the whole create with ErrDuplicateRecord.
	Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	Save(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	List(ctx context.Context) ([]*domain.Trip, error)
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Trip, error)
	// ActiveTripForOrder returns the created or dispatched trip the
	// order is assigned to, or ErrNotFound.
	ActiveTripForOrder(ctx context.Context, orderID int64) (*domain.Trip, error)
}
