package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists payments and invoices in PostgreSQL using GORM.
// Payments are append only; invoices carry a unique order_id index so
// the database enforces one invoice per order.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

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

func (r *Repository) CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	record := toPaymentRecord(payment)
	if record.Version == 0 {
		record.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetPayment(ctx, record.ID)
}

func (r *Repository) SavePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	record := toPaymentRecord(payment)
	result := r.db.WithContext(ctx).
		Model(&paymentRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]any{
			"verified":      record.Verified,
			"verified_by":   record.VerifiedBy,
			"verified_at":   record.VerifiedAt,
			"notes":         record.Notes,
			"version":       record.Version + 1,
			"updated_at":    record.UpdatedAt,
			"updated_by_id": record.UpdatedByID,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classifyPaymentConflict(ctx, record.ID)
	}
	return r.GetPayment(ctx, record.ID)
}

func (r *Repository) classifyPaymentConflict(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&paymentRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrConcurrentModification
}

func (r *Repository) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record paymentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) PaymentsByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []paymentRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Payment, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

func (r *Repository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, errors.New("invoice is nil")
	}
	record := toInvoiceRecord(invoice)
	if record.Version == 0 {
		record.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrDuplicateRecord
		}
		return nil, err
	}
	return r.GetInvoice(ctx, record.ID)
}

func (r *Repository) SaveInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, errors.New("invoice is nil")
	}
	record := toInvoiceRecord(invoice)
	result := r.db.WithContext(ctx).
		Model(&invoiceRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]any{
			"status":        record.Status,
			"paid_at":       record.PaidAt,
			"due_at":        record.DueAt,
			"version":       record.Version + 1,
			"updated_at":    record.UpdatedAt,
			"updated_by_id": record.UpdatedByID,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classifyInvoiceConflict(ctx, record.ID)
	}
	return r.GetInvoice(ctx, record.ID)
}

func (r *Repository) classifyInvoiceConflict(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&invoiceRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrConcurrentModification
}

func (r *Repository) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record invoiceRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) InvoiceByOrder(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record invoiceRecord
	if err := r.db.WithContext(ctx).First(&record, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListInvoices(ctx context.Context, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Order("id asc")
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		query = query.Where("status IN ?", values)
	}
	var records []invoiceRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Invoice, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres repository is not initialised")
	}
	return nil
}

func toPaymentRecord(p *domain.Payment) paymentRecord {
	return paymentRecord{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		ReferenceNo: p.ReferenceNo,
		Notes:       p.Notes,
		ReceivedBy:  p.ReceivedBy,
		ReceivedAt:  p.ReceivedAt,
		Verified:    p.Verified,
		VerifiedBy:  p.VerifiedBy,
		VerifiedAt:  p.VerifiedAt,
		Version:     p.Meta.Version,
		CreatedAt:   p.Meta.CreatedAt,
		UpdatedAt:   p.Meta.UpdatedAt,
		CreatedByID: p.Meta.CreatedByID,
		UpdatedByID: p.Meta.UpdatedByID,
	}
}

func (r paymentRecord) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:          r.ID,
		OrderID:     r.OrderID,
		Amount:      r.Amount,
		Method:      domain.Method(r.Method),
		ReferenceNo: r.ReferenceNo,
		Notes:       r.Notes,
		ReceivedBy:  r.ReceivedBy,
		ReceivedAt:  r.ReceivedAt,
		Verified:    r.Verified,
		VerifiedBy:  r.VerifiedBy,
		VerifiedAt:  r.VerifiedAt,
		Meta: audit.Metadata{
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			CreatedByID: r.CreatedByID,
			UpdatedByID: r.UpdatedByID,
			Version:     r.Version,
		},
	}
}

func toInvoiceRecord(i *domain.Invoice) invoiceRecord {
	return invoiceRecord{
		ID:          i.ID,
		Number:      i.Number,
		OrderID:     i.OrderID,
		StoreID:     i.StoreID,
		Subtotal:    i.Subtotal,
		Tax:         i.Tax,
		Total:       i.Total,
		Status:      string(i.Status),
		IssuedAt:    i.IssuedAt,
		DueAt:       i.DueAt,
		PaidAt:      i.PaidAt,
		Version:     i.Meta.Version,
		CreatedAt:   i.Meta.CreatedAt,
		UpdatedAt:   i.Meta.UpdatedAt,
		CreatedByID: i.Meta.CreatedByID,
		UpdatedByID: i.Meta.UpdatedByID,
	}
}

func (r invoiceRecord) toDomain() *domain.Invoice {
	return &domain.Invoice{
		ID:       r.ID,
		Number:   r.Number,
		OrderID:  r.OrderID,
		StoreID:  r.StoreID,
		Subtotal: r.Subtotal,
		Tax:      r.Tax,
		Total:    r.Total,
		Status:   domain.InvoiceStatus(r.Status),
		IssuedAt: r.IssuedAt,
		DueAt:    r.DueAt,
		PaidAt:   r.PaidAt,
		Meta: audit.Metadata{
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			CreatedByID: r.CreatedByID,
			UpdatedByID: r.UpdatedByID,
			Version:     r.Version,
		},
	}
}
