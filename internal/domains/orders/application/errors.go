package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	refports "github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
)

// ErrInvalidInput groups caller-fault failures for transport mapping.
var ErrInvalidInput = errors.New("invalid order input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNoItems) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidUnitPrice) ||
		errors.Is(err, domain.ErrInvalidStore) ||
		errors.Is(err, domain.ErrInvalidWarehouse) ||
		errors.Is(err, domain.ErrInvalidProduct) ||
		errors.Is(err, domain.ErrUnknownStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

// mapLookupError turns unknown reference ids into validation failures; the
// reference service being unreachable stays an internal error.
func mapLookupError(err error, kind string, id int64) error {
	if errors.Is(err, refports.ErrNotFound) {
		return fmt.Errorf("%w: unknown %s %d", ErrInvalidInput, kind, id)
	}
	return err
}
