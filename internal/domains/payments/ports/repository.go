package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateRecord        = errors.New("record already exists")
	ErrConcurrentModification = errors.New("record was modified concurrently")
)

// Repository persists payments and invoices.
type Repository interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	SavePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	PaymentsByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error)

	CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	SaveInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)
	InvoiceByOrder(ctx context.Context, orderID int64) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error)
}
