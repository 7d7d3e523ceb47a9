package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
)

// reserveAttempts bounds the optimistic retry loop on contended records.
const reserveAttempts = 3

// Service orchestrates the inventory ledger use cases.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the inventory service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateRecord seeds the stock record for a (product, warehouse) pair. An
// initial non-zero level is written as an adjustment movement so the ledger
// fold identity holds from the first row.
func (s *Service) CreateRecord(ctx context.Context, input ports.CreateRecordInput) (*domain.Inventory, error) {
	if input.ProductID <= 0 || input.WarehouseID <= 0 {
		return nil, mapError(ErrInvalidRecord)
	}
	if input.StockLevel < 0 {
		return nil, mapError(domain.ErrNegativeStock)
	}
	now := s.now()
	inv := &domain.Inventory{
		ProductID:    input.ProductID,
		WarehouseID:  input.WarehouseID,
		ReorderLevel: input.ReorderLevel,
		MaxStock:     input.MaxStock,
	}
	inv.Meta.Stamp(input.ActorID, now)
	created, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, mapError(err)
	}
	if input.StockLevel == 0 {
		return created, nil
	}
	movement, err := created.Apply(uuid.NewString(), domain.MovementAdjustment, input.StockLevel, "initial-stock", "opening balance", input.ActorID, now, domain.ApplyOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.Update(ctx, created, movement)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// Reserve decrements stock for an order line, retrying a bounded number of
// times when the record is modified concurrently. A failed reservation
// leaves the record untouched.
func (s *Service) Reserve(ctx context.Context, productID, warehouseID, quantity int64, reference, actorID string) (*domain.Inventory, error) {
	if quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		inv, err := s.repo.GetByProductWarehouse(ctx, productID, warehouseID)
		if err != nil {
			return nil, mapError(err)
		}
		movement, err := inv.Apply(uuid.NewString(), domain.MovementOrder, -quantity, reference, "", actorID, s.now(), domain.ApplyOptions{})
		if err != nil {
			return nil, mapError(err)
		}
		updated, err := s.repo.Update(ctx, inv, movement)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, ports.ErrConcurrentModification) {
			return nil, mapError(err)
		}
		lastErr = err
	}
	return nil, mapError(lastErr)
}

// ReserveBatch decrements stock for every line atomically; if any line lacks
// sufficient stock no decrement is applied at all.
func (s *Service) ReserveBatch(ctx context.Context, lines []ports.StockLine, reference, actorID string) error {
	return s.applyBatch(ctx, lines, domain.MovementOrder, -1, reference, actorID)
}

// ReleaseBatch restores previously reserved stock, e.g. when an order is
// cancelled or returned after packing.
func (s *Service) ReleaseBatch(ctx context.Context, lines []ports.StockLine, reference, actorID string) error {
	return s.applyBatch(ctx, lines, domain.MovementReturn, 1, reference, actorID)
}

func (s *Service) applyBatch(ctx context.Context, lines []ports.StockLine, movementType domain.MovementType, sign int64, reference, actorID string) error {
	if len(lines) == 0 {
		return mapError(ErrEmptyBatch)
	}
	now := s.now()
	records := make([]*domain.Inventory, 0, len(lines))
	movements := make([]domain.Movement, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return mapError(domain.ErrInvalidQuantity)
		}
		inv, err := s.repo.GetByProductWarehouse(ctx, line.ProductID, line.WarehouseID)
		if err != nil {
			return mapError(err)
		}
		movement, err := inv.Apply(uuid.NewString(), movementType, sign*line.Quantity, reference, "", actorID, now, domain.ApplyOptions{})
		if err != nil {
			return mapError(err)
		}
		records = append(records, inv)
		movements = append(movements, movement)
	}
	if err := s.repo.UpdateBatch(ctx, records, movements); err != nil {
		return mapError(err)
	}
	return nil
}

// Adjust applies a signed manual correction. A negative resulting level is
// rejected unless the movement is an adjustment carrying the administrative
// override flag.
func (s *Service) Adjust(ctx context.Context, input ports.AdjustInput) (*domain.Inventory, error) {
	inv, err := s.repo.GetByID(ctx, input.InventoryID)
	if err != nil {
		return nil, mapError(err)
	}
	movementType := input.Type
	if movementType == "" {
		movementType = domain.MovementAdjustment
	}
	movement, err := inv.Apply(uuid.NewString(), movementType, input.Delta, input.Reference, input.Notes, input.ActorID, s.now(), domain.ApplyOptions{
		AdministrativeOverride: input.AdministrativeOverride,
	})
	if err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.Update(ctx, inv, movement)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// Restock is an Adjust convenience with the restock movement type.
func (s *Service) Restock(ctx context.Context, productID, warehouseID, quantity int64, reference, actorID string) (*domain.Inventory, error) {
	if quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	inv, err := s.repo.GetByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, mapError(err)
	}
	return s.Adjust(ctx, ports.AdjustInput{
		InventoryID: inv.ID,
		Delta:       quantity,
		Type:        domain.MovementRestock,
		Reference:   reference,
		ActorID:     actorID,
	})
}

// VerifyLedger checks the fold identity between the movement ledger and the
// stored stock level.
func (s *Service) VerifyLedger(ctx context.Context, inventoryID int64) error {
	inv, err := s.repo.GetByID(ctx, inventoryID)
	if err != nil {
		return mapError(err)
	}
	movements, err := s.repo.Movements(ctx, inventoryID)
	if err != nil {
		return mapError(err)
	}
	if err := inv.VerifyAgainst(movements); err != nil {
		return mapError(err)
	}
	return nil
}

// LowStock lists records at or below their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]*domain.Inventory, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	low := make([]*domain.Inventory, 0, len(records))
	for _, inv := range records {
		if inv.BelowReorderLevel() {
			low = append(low, inv)
		}
	}
	return low, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Inventory, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return inv, nil
}

func (s *Service) Movements(ctx context.Context, inventoryID int64) ([]domain.Movement, error) {
	movements, err := s.repo.Movements(ctx, inventoryID)
	if err != nil {
		return nil, mapError(err)
	}
	return movements, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Inventory, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

var _ ports.Service = (*Service)(nil)
