package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. The order row, its
// item rows, and the audit trail live in one schema; writes on the order
// row are guarded by the version column.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	Reference   string          `gorm:"column:reference;uniqueIndex"`
	StoreID     int64           `gorm:"column:store_id;index"`
	WarehouseID int64           `gorm:"column:warehouse_id;index"`
	AgentID     string          `gorm:"column:agent_id"`
	Status      string          `gorm:"column:status;type:varchar(32);index"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(20,4)"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(20,4)"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(20,4)"`
	IsPaid      bool            `gorm:"column:is_paid"`
	PaidAt      *time.Time      `gorm:"column:paid_at"`
	Version     int64           `gorm:"column:version"`
	CreatedAt   time.Time       `gorm:"column:created_at;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	CreatedByID string          `gorm:"column:created_by_id"`
	UpdatedByID string          `gorm:"column:updated_by_id"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;index"`
	ProductID int64           `gorm:"column:product_id;index"`
	Quantity  int64           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(20,4)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type orderAuditRecord struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	OrderID    int64     `gorm:"column:order_id;index"`
	FromStatus string    `gorm:"column:from_status;type:varchar(32)"`
	ToStatus   string    `gorm:"column:to_status;type:varchar(32)"`
	ActorID    string    `gorm:"column:actor_id"`
	Note       string    `gorm:"column:note"`
	At         time.Time `gorm:"column:at;index"`
}

func (orderAuditRecord) TableName() string { return "order_audit" }

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	if record.Version == 0 {
		record.Version = 1
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return replaceItems(tx, record.ID, order.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND version = ?", order.ID, order.Meta.Version).
			Updates(map[string]any{
				"status":        string(order.Status),
				"subtotal":      order.Subtotal,
				"tax":           order.Tax,
				"total":         order.Total,
				"is_paid":       order.IsPaid,
				"paid_at":       order.PaidAt,
				"updated_at":    order.Meta.UpdatedAt,
				"updated_by_id": order.Meta.UpdatedByID,
				"version":       order.Meta.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&orderRecord{}).Where("id = ?", order.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ports.ErrNotFound
			}
			return ports.ErrConcurrentModification
		}
		return replaceItems(tx, order.ID, order.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, order.ID)
}

func replaceItems(tx *gorm.DB, orderID int64, items []domain.Item) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&orderItemRecord{}).Error; err != nil {
		return err
	}
	for _, item := range items {
		record := orderItemRecord{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return record.toDomain(items[id]), nil
}

func (r *Repository) ListByStore(ctx context.Context, storeID int64) ([]*domain.Order, error) {
	return r.list(ctx, "store_id = ?", storeID)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}
	return r.list(ctx, "status IN ?", raw)
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, "")
}

func (r *Repository) list(ctx context.Context, condition string, args ...any) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	query := r.db.WithContext(ctx).Order("id ASC")
	if condition != "" {
		query = query.Where(condition, args...)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain(items[records[i].ID]))
	}
	return orders, nil
}

func (r *Repository) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.Item, error) {
	result := map[int64][]domain.Item{}
	if len(orderIDs) == 0 {
		return result, nil
	}
	var records []orderItemRecord
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		result[record.OrderID] = append(result[record.OrderID], domain.Item{
			ID:        record.ID,
			OrderID:   record.OrderID,
			ProductID: record.ProductID,
			Quantity:  record.Quantity,
			UnitPrice: record.UnitPrice,
		})
	}
	return result, nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := orderAuditRecord{
		OrderID:    entry.OrderID,
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		ActorID:    entry.ActorID,
		Note:       entry.Note,
		At:         entry.At,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *Repository) AuditTrail(ctx context.Context, orderID int64) ([]domain.AuditEntry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderAuditRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	trail := make([]domain.AuditEntry, 0, len(records))
	for _, record := range records {
		trail = append(trail, domain.AuditEntry{
			ID:         record.ID,
			OrderID:    record.OrderID,
			FromStatus: domain.Status(record.FromStatus),
			ToStatus:   domain.Status(record.ToStatus),
			ActorID:    record.ActorID,
			Note:       record.Note,
			At:         record.At,
		})
	}
	return trail, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:          order.ID,
		Reference:   order.Reference,
		StoreID:     order.StoreID,
		WarehouseID: order.WarehouseID,
		AgentID:     order.AgentID,
		Status:      string(order.Status),
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Total:       order.Total,
		IsPaid:      order.IsPaid,
		PaidAt:      order.PaidAt,
		Version:     order.Meta.Version,
		CreatedAt:   order.Meta.CreatedAt,
		UpdatedAt:   order.Meta.UpdatedAt,
		CreatedByID: order.Meta.CreatedByID,
		UpdatedByID: order.Meta.UpdatedByID,
	}
}

func (r orderRecord) toDomain(items []domain.Item) *domain.Order {
	return &domain.Order{
		ID:          r.ID,
		Reference:   r.Reference,
		StoreID:     r.StoreID,
		WarehouseID: r.WarehouseID,
		AgentID:     r.AgentID,
		Status:      domain.Status(r.Status),
		Items:       items,
		Subtotal:    r.Subtotal,
		Tax:         r.Tax,
		Total:       r.Total,
		IsPaid:      r.IsPaid,
		PaidAt:      r.PaidAt,
		Meta: audit.Metadata{
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			CreatedByID: r.CreatedByID,
			UpdatedByID: r.UpdatedByID,
			Version:     r.Version,
		},
	}
}
