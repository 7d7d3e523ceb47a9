package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
)

var (
	// ErrInvalidRecord signals the record input violated a basic constraint.
	ErrInvalidRecord = errors.New("product and warehouse ids are required")
	// ErrEmptyBatch signals a batch operation received no lines.
	ErrEmptyBatch = errors.New("stock batch requires at least one line")
	// ErrInvalidInput groups the caller-fault failures for transport mapping.
	ErrInvalidInput = errors.New("invalid inventory input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrUnknownMovement) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrEmptyBatch) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
