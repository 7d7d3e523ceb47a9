package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
)

const defaultPaymentTerms = 30 * 24 * time.Hour

// Service implements the payments use cases on top of a repository
// and a read-only view of the orders context.
type Service struct {
	repo   ports.Repository
	orders ports.OrderReader
	marker ports.OrderPaymentMarker
	terms  time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithPaymentTerms overrides the default net-30 invoice terms.
func WithPaymentTerms(terms time.Duration) Option {
	return func(s *Service) {
		if terms > 0 {
			s.terms = terms
		}
	}
}

// WithOrderPaymentMarker wires the collaborator that flips the order
// paid flag. Without it orders keep their own flag untouched.
func WithOrderPaymentMarker(marker ports.OrderPaymentMarker) Option {
	return func(s *Service) { s.marker = marker }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, orders ports.OrderReader, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		orders: orders,
		terms:  defaultPaymentTerms,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// RecordPayment appends a tender against an order and recomputes the
// order's paid state. Overpayments are recorded and surfaced in the
// result rather than rejected.
func (s *Service) RecordPayment(ctx context.Context, input ports.RecordPaymentInput) (*ports.PaymentResult, error) {
	order, err := s.orders.Order(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", input.OrderID, err)
	}
	now := s.now()
	payment, err := domain.NewPayment(input.OrderID, input.Amount, input.Method, input.ReferenceNo, input.Notes, input.ActorID, now)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	totalPaid, err := s.TotalPaid(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	remaining := order.Total.Sub(totalPaid)
	covered := !remaining.IsPositive()
	overpayment := decimal.Zero
	if remaining.IsNegative() {
		overpayment = remaining.Neg()
		remaining = decimal.Zero
	}

	if covered && !order.IsPaid && s.marker != nil {
		if err := s.marker.SetPaid(ctx, order.ID, true, input.ActorID); err != nil {
			return nil, fmt.Errorf("mark order %d paid: %w", order.ID, err)
		}
	}
	if covered {
		if err := s.settleInvoice(ctx, order.ID, input.ActorID, now); err != nil {
			return nil, err
		}
	}

	return &ports.PaymentResult{
		Payment:     created,
		TotalPaid:   totalPaid,
		Remaining:   remaining,
		OrderPaid:   covered,
		Overpayment: overpayment,
	}, nil
}

func (s *Service) settleInvoice(ctx context.Context, orderID int64, actorID string, now time.Time) error {
	invoice, err := s.repo.InvoiceByOrder(ctx, orderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load invoice for order %d: %w", orderID, err)
	}
	if invoice.Status == domain.InvoicePaid {
		return nil
	}
	invoice.MarkPaid(actorID, now)
	if _, err := s.repo.SaveInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("settle invoice %s: %w", invoice.Number, err)
	}
	return nil
}

// ReconcilePayment marks a payment as verified. Reconciling an
// already verified payment returns it unchanged.
func (s *Service) ReconcilePayment(ctx context.Context, paymentID int64, actorID string) (*domain.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment %d: %w", paymentID, err)
	}
	if err := payment.Verify(actorID, s.now()); err != nil {
		if errors.Is(err, domain.ErrAlreadyVerified) {
			return payment, nil
		}
		return nil, err
	}
	saved, err := s.repo.SavePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("save payment %d: %w", paymentID, err)
	}
	return saved, nil
}

// GenerateInvoice issues the single invoice for a delivered order.
func (s *Service) GenerateInvoice(ctx context.Context, orderID int64, actorID string) (*domain.Invoice, error) {
	order, err := s.orders.Order(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if !order.Delivered {
		return nil, domain.ErrOrderNotDelivered
	}
	if _, err := s.repo.InvoiceByOrder(ctx, orderID); err == nil {
		return nil, domain.ErrAlreadyInvoiced
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("check invoice for order %d: %w", orderID, err)
	}

	number := "INV-" + uuid.NewString()
	invoice := domain.NewInvoice(number, order.ID, order.StoreID, order.Subtotal, order.Tax, order.Total, s.terms, actorID, s.now())
	created, err := s.repo.CreateInvoice(ctx, invoice)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateRecord) {
			return nil, domain.ErrAlreadyInvoiced
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return created, nil
}

// FlagOverdueInvoices sweeps issued invoices past their due date and
// returns the number flagged.
func (s *Service) FlagOverdueInvoices(ctx context.Context, actorID string) (int, error) {
	invoices, err := s.repo.ListInvoices(ctx, []domain.InvoiceStatus{domain.InvoiceIssued})
	if err != nil {
		return 0, fmt.Errorf("list invoices: %w", err)
	}
	now := s.now()
	flagged := 0
	for _, invoice := range invoices {
		if !invoice.MarkOverdue(actorID, now) {
			continue
		}
		if _, err := s.repo.SaveInvoice(ctx, invoice); err != nil {
			return flagged, fmt.Errorf("flag invoice %s: %w", invoice.Number, err)
		}
		flagged++
	}
	return flagged, nil
}

// ComputeARAging buckets the outstanding balance of every unsettled
// invoice by days since issue at the given reference date, overall and
// per store. A delivered order with no invoice yet has no receivable
// and does not age. A zero asOf means now.
func (s *Service) ComputeARAging(ctx context.Context, asOf time.Time) (*domain.AgingSummary, []domain.StoreAging, error) {
	invoices, err := s.repo.ListInvoices(ctx, []domain.InvoiceStatus{domain.InvoiceIssued, domain.InvoiceOverdue})
	if err != nil {
		return nil, nil, fmt.Errorf("list invoices: %w", err)
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	summary := &domain.AgingSummary{}
	perStore := make(map[int64]*domain.AgingSummary)
	for _, invoice := range invoices {
		paid, err := s.TotalPaid(ctx, invoice.OrderID)
		if err != nil {
			return nil, nil, err
		}
		outstanding := invoice.Total.Sub(paid)
		if !outstanding.IsPositive() {
			continue
		}
		bucket := domain.BucketFor(invoice.IssuedAt, asOf)
		summary.Add(bucket, outstanding)
		store := perStore[invoice.StoreID]
		if store == nil {
			store = &domain.AgingSummary{}
			perStore[invoice.StoreID] = store
		}
		store.Add(bucket, outstanding)
	}

	stores := make([]domain.StoreAging, 0, len(perStore))
	for storeID, sum := range perStore {
		stores = append(stores, domain.StoreAging{StoreID: storeID, Summary: *sum})
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].StoreID < stores[j].StoreID })
	return summary, stores, nil
}

// TotalPaid sums all payments recorded against an order.
func (s *Service) TotalPaid(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	payments, err := s.repo.PaymentsByOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list payments for order %d: %w", orderID, err)
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (s *Service) PaymentsByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	return s.repo.PaymentsByOrder(ctx, orderID)
}

func (s *Service) InvoiceByOrder(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	return s.repo.InvoiceByOrder(ctx, orderID)
}

func (s *Service) ListInvoices(ctx context.Context, statuses []domain.InvoiceStatus) ([]*domain.Invoice, error) {
	return s.repo.ListInvoices(ctx, statuses)
}

var _ ports.Service = (*Service)(nil)
