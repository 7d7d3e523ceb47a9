package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-distribution-api/internal/domains/refdata/domain"
)

var ErrNotFound = errors.New("reference record not found")

// Lookup exposes read-only reference data. The core never manages these
// records; unknown ids surface as validation failures to callers.
type Lookup interface {
	Store(ctx context.Context, id int64) (*domain.Store, error)
	Product(ctx context.Context, id int64) (*domain.Product, error)
	Warehouse(ctx context.Context, id int64) (*domain.Warehouse, error)
}
