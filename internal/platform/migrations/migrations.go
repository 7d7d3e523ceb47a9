package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&storeRecord{},
		&productRecord{},
		&warehouseRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&orderAuditRecord{},
		&inventoryRecord{},
		&movementRecord{},
		&tripRecord{},
		&tripAssignmentRecord{},
		&paymentRecord{},
		&invoiceRecord{},
	)
}

// Reference data schema mirrors the refdata Postgres adapter.
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

// Order schema mirrors the orders Postgres adapter.
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

// Inventory schema mirrors the inventory Postgres adapter.
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

// Trip schema mirrors the trips Postgres adapter.
type tripRecord struct {
	ID           int64      `gorm:"primaryKey;column:id"`
	Reference    string     `gorm:"column:reference;uniqueIndex"`
	WarehouseID  int64      `gorm:"column:warehouse_id;index"`
	DriverID     string     `gorm:"column:driver_id;index"`
	VehicleID    string     `gorm:"column:vehicle_id"`
	Status       string     `gorm:"column:status;type:varchar(32);index"`
	DispatchedAt *time.Time `gorm:"column:dispatched_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	Version      int64      `gorm:"column:version"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	CreatedByID  string     `gorm:"column:created_by_id"`
	UpdatedByID  string     `gorm:"column:updated_by_id"`
}

func (tripRecord) TableName() string { return "trips" }

type tripAssignmentRecord struct {
	ID                int64          `gorm:"primaryKey;column:id"`
	TripID            int64          `gorm:"column:trip_id;index"`
	OrderID           int64          `gorm:"column:order_id;index"`
	Sequence          int            `gorm:"column:sequence"`
	Status            string         `gorm:"column:status;type:varchar(32)"`
	Notes             string         `gorm:"column:notes"`
	DeliveredAt       *time.Time     `gorm:"column:delivered_at"`
	DeliveryPhotoRefs pq.StringArray `gorm:"column:delivery_photo_refs;type:text[]"`
}

func (tripAssignmentRecord) TableName() string { return "trip_assignments" }

// Payment and invoice schema mirrors the payments Postgres adapter.
type paymentRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	OrderID     int64           `gorm:"column:order_id;index"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(20,4)"`
	Method      string          `gorm:"column:method;type:varchar(32)"`
	ReferenceNo string          `gorm:"column:reference_no"`
	Notes       string          `gorm:"column:notes"`
	ReceivedBy  string          `gorm:"column:received_by"`
	ReceivedAt  time.Time       `gorm:"column:received_at;index"`
	Verified    bool            `gorm:"column:verified"`
	VerifiedBy  string          `gorm:"column:verified_by"`
	VerifiedAt  *time.Time      `gorm:"column:verified_at"`
	Version     int64           `gorm:"column:version"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	CreatedByID string          `gorm:"column:created_by_id"`
	UpdatedByID string          `gorm:"column:updated_by_id"`
}

func (paymentRecord) TableName() string { return "payments" }

type invoiceRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	Number      string          `gorm:"column:number;uniqueIndex"`
	OrderID     int64           `gorm:"column:order_id;uniqueIndex"`
	StoreID     int64           `gorm:"column:store_id;index"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(20,4)"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(20,4)"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(20,4)"`
	Status      string          `gorm:"column:status;type:varchar(32);index"`
	IssuedAt    time.Time       `gorm:"column:issued_at"`
	DueAt       time.Time       `gorm:"column:due_at;index"`
	PaidAt      *time.Time      `gorm:"column:paid_at"`
	Version     int64           `gorm:"column:version"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	CreatedByID string          `gorm:"column:created_by_id"`
	UpdatedByID string          `gorm:"column:updated_by_id"`
}

func (invoiceRecord) TableName() string { return "invoices" }
