package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists inventory records and their movement ledger in
// PostgreSQL using GORM. Level changes and ledger appends share one
// transaction, and every write is guarded by the version column.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type inventoryRecord struct {
	ID            int64      `gorm:"primaryKey;column:id"`
	ProductID     int64      `gorm:"column:product_id;uniqueIndex:idx_inventories_product_warehouse"`
	WarehouseID   int64      `gorm:"column:warehouse_id;uniqueIndex:idx_inventories_product_warehouse"`
	StockLevel    int64      `gorm:"column:stock_level"`
	ReorderLevel  int64      `gorm:"column:reorder_level"`
	MaxStock      int64      `gorm:"column:max_stock"`
	LastRestocked *time.Time `gorm:"column:last_restocked"`
	Version       int64      `gorm:"column:version"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	CreatedByID   string     `gorm:"column:created_by_id"`
	UpdatedByID   string     `gorm:"column:updated_by_id"`
}

func (inventoryRecord) TableName() string { return "inventories" }

type movementRecord struct {
	ID            string    `gorm:"primaryKey;column:id;size:36"`
	InventoryID   int64     `gorm:"column:inventory_id;index"`
	Type          string    `gorm:"column:type;type:varchar(32);index"`
	Quantity      int64     `gorm:"column:quantity"`
	PreviousStock int64     `gorm:"column:previous_stock"`
	NewStock      int64     `gorm:"column:new_stock"`
	Reference     string    `gorm:"column:reference;index"`
	Notes         string    `gorm:"column:notes"`
	RecordedAt    time.Time `gorm:"column:recorded_at;index"`
	RecordedByID  string    `gorm:"column:recorded_by_id"`
}

func (movementRecord) TableName() string { return "inventory_movements" }

func (r *Repository) Create(ctx context.Context, inv *domain.Inventory) (*domain.Inventory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errors.New("inventory is nil")
	}
	record := toRecord(inv)
	if record.Version == 0 {
		record.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrDuplicateRecord
		}
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Inventory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record inventoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByProductWarehouse(ctx context.Context, productID, warehouseID int64) (*domain.Inventory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record inventoryRecord
	err := r.db.WithContext(ctx).
		First(&record, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) Update(ctx context.Context, inv *domain.Inventory, movements ...domain.Movement) (*domain.Inventory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errors.New("inventory is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateInTx(tx, inv, movements)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, inv.ID)
}

func (r *Repository) UpdateBatch(ctx context.Context, invs []*domain.Inventory, movements []domain.Movement) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	byRecord := map[int64][]domain.Movement{}
	for _, m := range movements {
		byRecord[m.InventoryID] = append(byRecord[m.InventoryID], m)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, inv := range invs {
			if err := updateInTx(tx, inv, byRecord[inv.ID]); err != nil {
				return err
			}
		}
		return nil
	})
}

// updateInTx performs the version-guarded level write plus the ledger append.
func updateInTx(tx *gorm.DB, inv *domain.Inventory, movements []domain.Movement) error {
	result := tx.Model(&inventoryRecord{}).
		Where("id = ? AND version = ?", inv.ID, inv.Meta.Version).
		Updates(map[string]any{
			"stock_level":    inv.StockLevel,
			"reorder_level":  inv.ReorderLevel,
			"max_stock":      inv.MaxStock,
			"last_restocked": inv.LastRestocked,
			"updated_at":     inv.Meta.UpdatedAt,
			"updated_by_id":  inv.Meta.UpdatedByID,
			"version":        inv.Meta.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := tx.Model(&inventoryRecord{}).Where("id = ?", inv.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ports.ErrNotFound
		}
		return ports.ErrConcurrentModification
	}
	for _, m := range movements {
		record := toMovementRecord(m)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Movements(ctx context.Context, inventoryID int64) ([]domain.Movement, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []movementRecord
	err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("recorded_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	movements := make([]domain.Movement, 0, len(records))
	for i := range records {
		movements = append(movements, records[i].toDomain())
	}
	return movements, nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Inventory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []inventoryRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]*domain.Inventory, 0, len(records))
	for i := range records {
		list = append(list, records[i].toDomain())
	}
	return list, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres inventory repository not configured")
	}
	return nil
}

func toRecord(inv *domain.Inventory) inventoryRecord {
	return inventoryRecord{
		ID:            inv.ID,
		ProductID:     inv.ProductID,
		WarehouseID:   inv.WarehouseID,
		StockLevel:    inv.StockLevel,
		ReorderLevel:  inv.ReorderLevel,
		MaxStock:      inv.MaxStock,
		LastRestocked: inv.LastRestocked,
		Version:       inv.Meta.Version,
		CreatedAt:     inv.Meta.CreatedAt,
		UpdatedAt:     inv.Meta.UpdatedAt,
		CreatedByID:   inv.Meta.CreatedByID,
		UpdatedByID:   inv.Meta.UpdatedByID,
	}
}

func toMovementRecord(m domain.Movement) movementRecord {
	return movementRecord{
		ID:            m.ID,
		InventoryID:   m.InventoryID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reference:     m.Reference,
		Notes:         m.Notes,
		RecordedAt:    m.RecordedAt,
		RecordedByID:  m.RecordedByID,
	}
}

func (r inventoryRecord) toDomain() *domain.Inventory {
	return &domain.Inventory{
		ID:            r.ID,
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		StockLevel:    r.StockLevel,
		ReorderLevel:  r.ReorderLevel,
		MaxStock:      r.MaxStock,
		LastRestocked: r.LastRestocked,
		Meta: audit.Metadata{
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			CreatedByID: r.CreatedByID,
			UpdatedByID: r.UpdatedByID,
			Version:     r.Version,
		},
	}
}

func (r movementRecord) toDomain() domain.Movement {
	return domain.Movement{
		ID:            r.ID,
		InventoryID:   r.InventoryID,
		Type:          domain.MovementType(r.Type),
		Quantity:      r.Quantity,
		PreviousStock: r.PreviousStock,
		NewStock:      r.NewStock,
		Reference:     r.Reference,
		Notes:         r.Notes,
		RecordedAt:    r.RecordedAt,
		RecordedByID:  r.RecordedByID,
	}
}
