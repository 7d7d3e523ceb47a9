package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/refdata/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
)

var _ ports.Lookup = (*Lookup)(nil)

// Lookup reads reference data from PostgreSQL. The tables are maintained by
// an external admin surface; this adapter never writes them.
type Lookup struct {
	db *gorm.DB
}

func NewLookup(db *gorm.DB) *Lookup {
	return &Lookup{db: db}
}

type storeRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	Name        string          `gorm:"column:name"`
	City        string          `gorm:"column:city"`
	Barangay    string          `gorm:"column:barangay"`
	CreditLimit decimal.Decimal `gorm:"column:credit_limit;type:numeric(20,4)"`
	Latitude    *float64        `gorm:"column:latitude"`
	Longitude   *float64        `gorm:"column:longitude"`
	IsActive    bool            `gorm:"column:is_active"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (storeRecord) TableName() string { return "stores" }

type productRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	SKU       string          `gorm:"column:sku;uniqueIndex"`
	Name      string          `gorm:"column:name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(20,4)"`
	IsActive  bool            `gorm:"column:is_active"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type warehouseRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name"`
	Latitude  *float64  `gorm:"column:latitude"`
	Longitude *float64  `gorm:"column:longitude"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (warehouseRecord) TableName() string { return "warehouses" }

func (l *Lookup) Store(ctx context.Context, id int64) (*domain.Store, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var record storeRecord
	if err := l.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &domain.Store{
		ID:          record.ID,
		Name:        record.Name,
		City:        record.City,
		Barangay:    record.Barangay,
		CreditLimit: record.CreditLimit,
		Location:    toCoordinate(record.Latitude, record.Longitude),
		IsActive:    record.IsActive,
	}, nil
}

func (l *Lookup) Product(ctx context.Context, id int64) (*domain.Product, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := l.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &domain.Product{
		ID:        record.ID,
		SKU:       record.SKU,
		Name:      record.Name,
		UnitPrice: record.UnitPrice,
		IsActive:  record.IsActive,
	}, nil
}

func (l *Lookup) Warehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var record warehouseRecord
	if err := l.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &domain.Warehouse{
		ID:       record.ID,
		Name:     record.Name,
		Location: toCoordinate(record.Latitude, record.Longitude),
		IsActive: record.IsActive,
	}, nil
}

func (l *Lookup) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres reference lookup not configured")
	}
	return nil
}

func toCoordinate(lat, lng *float64) *domain.Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	return &domain.Coordinate{Latitude: *lat, Longitude: *lng}
}
