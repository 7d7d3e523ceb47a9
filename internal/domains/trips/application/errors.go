package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrOrderNotReady        = errors.New("order is not packed and cannot be assigned")
	ErrOrderAlreadyAssigned = errors.New("order is already on an active trip")
	ErrWarehouseMismatch    = errors.New("order is stocked at a different warehouse")
)

// mapError folds validation-class failures under ErrInvalidInput so
// transports can map them without knowing every sentinel.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNoAssignments),
		errors.Is(err, domain.ErrNoWarehouse),
		errors.Is(err, domain.ErrDuplicateOrder),
		errors.Is(err, domain.ErrInvalidSequence):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
