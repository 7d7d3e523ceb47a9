package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
)

var ErrInvalidInput = errors.New("invalid input")

// mapError folds validation-class failures under ErrInvalidInput so
// transports can map them without knowing every sentinel.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownMethod):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
