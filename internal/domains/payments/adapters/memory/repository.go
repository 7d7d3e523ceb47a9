package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
)

// Repository is an in-memory payments store used by tests and the
// in-process wiring.
type Repository struct {
	mu             sync.RWMutex
	payments       map[int64]*domain.Payment
	invoices       map[int64]*domain.Invoice
	invoiceByOrder map[int64]int64
	nextPaymentID  int64
	nextInvoiceID  int64
}

func NewRepository() *Repository {
	return &Repository{
		payments:       make(map[int64]*domain.Payment),
		invoices:       make(map[int64]*domain.Invoice),
		invoiceByOrder: make(map[int64]int64),
		nextPaymentID:  1,
		nextInvoiceID:  1,
	}
}

func (r *Repository) CreatePayment(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := clonePayment(payment)
	clone.ID = r.nextPaymentID
	r.nextPaymentID++
	r.payments[clone.ID] = clone
	return clonePayment(clone), nil
}

func (r *Repository) SavePayment(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.payments[payment.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Meta.Version != payment.Meta.Version {
		return nil, ports.ErrConcurrentModification
	}
	clone := clonePayment(payment)
	clone.Meta.Version++
	r.payments[clone.ID] = clone
	return clonePayment(clone), nil
}

func (r *Repository) GetPayment(_ context.Context, id int64) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clonePayment(payment), nil
}

func (r *Repository) PaymentsByOrder(_ context.Context, orderID int64) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Payment
	for _, payment := range r.payments {
		if payment.OrderID == orderID {
			out = append(out, clonePayment(payment))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) CreateInvoice(_ context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.invoiceByOrder[invoice.OrderID]; exists {
		return nil, ports.ErrDuplicateRecord
	}
	clone := cloneInvoice(invoice)
	clone.ID = r.nextInvoiceID
	r.nextInvoiceID++
	r.invoices[clone.ID] = clone
	r.invoiceByOrder[clone.OrderID] = clone.ID
	return cloneInvoice(clone), nil
}

func (r *Repository) SaveInvoice(_ context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.invoices[invoice.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Meta.Version != invoice.Meta.Version {
		return nil, ports.ErrConcurrentModification
	}
	clone := cloneInvoice(invoice)
	clone.Meta.Version++
	r.invoices[clone.ID] = clone
	return cloneInvoice(clone), nil
}

func (r *Repository) GetInvoice(_ context.Context, id int64) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneInvoice(invoice), nil
}

func (r *Repository) InvoiceByOrder(_ context.Context, orderID int64) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.invoiceByOrder[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneInvoice(r.invoices[id]), nil
}

func (r *Repository) ListInvoices(_ context.Context, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[domain.InvoiceStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	var out []*domain.Invoice
	for _, invoice := range r.invoices {
		if len(wanted) > 0 {
			if _, ok := wanted[invoice.Status]; !ok {
				continue
			}
		}
		out = append(out, cloneInvoice(invoice))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func clonePayment(p *domain.Payment) *domain.Payment {
	clone := *p
	if p.VerifiedAt != nil {
		at := *p.VerifiedAt
		clone.VerifiedAt = &at
	}
	return &clone
}

func cloneInvoice(i *domain.Invoice) *domain.Invoice {
	clone := *i
	if i.PaidAt != nil {
		at := *i.PaidAt
		clone.PaidAt = &at
	}
	return &clone
}

var _ ports.Repository = (*Repository)(nil)
