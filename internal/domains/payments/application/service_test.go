package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/memory"
	"github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
)

// fakeOrders is a hand-rolled order reader seeded per test.
type fakeOrders struct {
	orders map[int64]*ports.OrderInfo
}

func (f *fakeOrders) Order(_ context.Context, orderID int64) (*ports.OrderInfo, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

type fakeMarker struct {
	calls []int64
}

func (f *fakeMarker) SetPaid(_ context.Context, orderID int64, paid bool, _ string) error {
	if paid {
		f.calls = append(f.calls, orderID)
	}
	return nil
}

func deliveredOrder(id, storeID int64, total int64, daysAgo int, now time.Time) *ports.OrderInfo {
	deliveredAt := now.AddDate(0, 0, -daysAgo)
	amount := decimal.NewFromInt(total)
	return &ports.OrderInfo{
		ID:          id,
		StoreID:     storeID,
		Reference:   "ORD-test",
		Subtotal:    amount,
		Total:       amount,
		Delivered:   true,
		DeliveredAt: &deliveredAt,
	}
}

func fixedClock(now time.Time) Option {
	return WithClock(func() time.Time { return now })
}

func TestRecordPayment_PartialLeavesOrderUnpaid(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	marker := &fakeMarker{}
	svc := NewService(memory.NewRepository(), orders, WithOrderPaymentMarker(marker), fixedClock(now))

	result, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.NewFromInt(60), Method: domain.MethodCash, ActorID: "collector",
	})
	require.NoError(t, err)
	require.False(t, result.OrderPaid)
	require.True(t, result.TotalPaid.Equal(decimal.NewFromInt(60)))
	require.True(t, result.Remaining.Equal(decimal.NewFromInt(40)))
	require.True(t, result.Overpayment.IsZero())
	require.Empty(t, marker.calls)
}

func TestRecordPayment_CoveringTotalMarksOrderPaid(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	marker := &fakeMarker{}
	svc := NewService(memory.NewRepository(), orders, WithOrderPaymentMarker(marker), fixedClock(now))

	_, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.NewFromInt(60), Method: domain.MethodCash, ActorID: "collector",
	})
	require.NoError(t, err)

	result, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.NewFromInt(40), Method: domain.MethodGCash, ActorID: "collector",
	})
	require.NoError(t, err)
	require.True(t, result.OrderPaid)
	require.True(t, result.Remaining.IsZero())
	require.Equal(t, []int64{4}, marker.calls)
}

func TestRecordPayment_OverpaymentSurfacedNotRejected(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	svc := NewService(memory.NewRepository(), orders, fixedClock(now))

	result, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.NewFromInt(130), Method: domain.MethodBankTransfer, ActorID: "collector",
	})
	require.NoError(t, err)
	require.True(t, result.OrderPaid)
	require.True(t, result.Remaining.IsZero())
	require.True(t, result.Overpayment.Equal(decimal.NewFromInt(30)))
}

func TestRecordPayment_SettlesOpenInvoice(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	svc := NewService(memory.NewRepository(), orders, fixedClock(now))

	invoice, err := svc.GenerateInvoice(context.Background(), 4, "billing")
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceIssued, invoice.Status)

	_, err = svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.NewFromInt(100), Method: domain.MethodCash, ActorID: "collector",
	})
	require.NoError(t, err)

	settled, err := svc.InvoiceByOrder(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, domain.InvoicePaid, settled.Status)
	require.NotNil(t, settled.PaidAt)
}

func TestRecordPayment_Validation(t *testing.T) {
	now := time.Now()
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	svc := NewService(memory.NewRepository(), orders)

	_, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.Zero, Method: domain.MethodCash, ActorID: "collector",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 99, Amount: decimal.NewFromInt(10), Method: domain.MethodCash, ActorID: "collector",
	})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestReconcilePayment_Idempotent(t *testing.T) {
	now := time.Now()
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	svc := NewService(memory.NewRepository(), orders)

	result, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 4, Amount: decimal.NewFromInt(10), Method: domain.MethodCheck, ReferenceNo: "CHK-1", ActorID: "collector",
	})
	require.NoError(t, err)

	verified, err := svc.ReconcilePayment(context.Background(), result.Payment.ID, "auditor")
	require.NoError(t, err)
	require.True(t, verified.Verified)
	require.Equal(t, "auditor", verified.VerifiedBy)

	again, err := svc.ReconcilePayment(context.Background(), result.Payment.ID, "auditor")
	require.NoError(t, err)
	require.True(t, again.Verified)
	require.Equal(t, verified.Meta.Version, again.Meta.Version)
}

func TestGenerateInvoice(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	svc := NewService(memory.NewRepository(), orders, fixedClock(now), WithPaymentTerms(15*24*time.Hour))

	invoice, err := svc.GenerateInvoice(context.Background(), 4, "billing")
	require.NoError(t, err)
	require.Contains(t, invoice.Number, "INV-")
	require.EqualValues(t, 4, invoice.OrderID)
	require.EqualValues(t, 2, invoice.StoreID)
	require.True(t, invoice.Total.Equal(decimal.NewFromInt(100)))
	require.Equal(t, now.AddDate(0, 0, 15), invoice.DueAt)
}

func TestGenerateInvoice_RequiresDelivery(t *testing.T) {
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: {ID: 4, StoreID: 2, Total: decimal.NewFromInt(100)},
	}}
	svc := NewService(memory.NewRepository(), orders)

	_, err := svc.GenerateInvoice(context.Background(), 4, "billing")
	require.ErrorIs(t, err, domain.ErrOrderNotDelivered)
}

func TestGenerateInvoice_OncePerOrder(t *testing.T) {
	now := time.Now()
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		4: deliveredOrder(4, 2, 100, 5, now),
	}}
	svc := NewService(memory.NewRepository(), orders)

	_, err := svc.GenerateInvoice(context.Background(), 4, "billing")
	require.NoError(t, err)

	_, err = svc.GenerateInvoice(context.Background(), 4, "billing")
	require.ErrorIs(t, err, domain.ErrAlreadyInvoiced)
}

func TestFlagOverdueInvoices(t *testing.T) {
	issued := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		1: deliveredOrder(1, 2, 100, 0, issued),
		2: deliveredOrder(2, 2, 200, 0, issued),
		3: deliveredOrder(3, 3, 300, 0, issued),
	}}
	repo := memory.NewRepository()
	svc := NewService(repo, orders, fixedClock(issued))
	for _, orderID := range []int64{1, 2, 3} {
		_, err := svc.GenerateInvoice(context.Background(), orderID, "billing")
		require.NoError(t, err)
	}
	// Settle order 3 so its invoice is skipped by the sweep.
	_, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 3, Amount: decimal.NewFromInt(300), Method: domain.MethodCash, ActorID: "collector",
	})
	require.NoError(t, err)

	sweep := NewService(repo, orders, fixedClock(issued.AddDate(0, 0, 45)))
	flagged, err := sweep.FlagOverdueInvoices(context.Background(), "sweeper")
	require.NoError(t, err)
	require.Equal(t, 2, flagged)

	overdue, err := sweep.ListInvoices(context.Background(), []domain.InvoiceStatus{domain.InvoiceOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	// A second sweep finds nothing to flag.
	flagged, err = sweep.FlagOverdueInvoices(context.Background(), "sweeper")
	require.NoError(t, err)
	require.Zero(t, flagged)
}

func TestComputeARAging(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		1: deliveredOrder(1, 2, 100, 50, asOf),
		2: deliveredOrder(2, 2, 50, 15, asOf),
		3: deliveredOrder(3, 7, 200, 96, asOf),
		4: deliveredOrder(4, 7, 80, 75, asOf),
	}}
	repo := memory.NewRepository()
	// Issue each invoice at a different age so the buckets split.
	for orderID, age := range map[int64]int{1: 45, 2: 10, 3: 95, 4: 70} {
		issuer := NewService(repo, orders, fixedClock(asOf.AddDate(0, 0, -age)))
		_, err := issuer.GenerateInvoice(context.Background(), orderID, "billing")
		require.NoError(t, err)
	}
	svc := NewService(repo, orders, fixedClock(asOf))
	// Partial payment leaves 20 of invoice 2 outstanding.
	_, err := svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 2, Amount: decimal.NewFromInt(30), Method: domain.MethodCash, ActorID: "collector",
	})
	require.NoError(t, err)

	summary, perStore, err := svc.ComputeARAging(context.Background(), asOf)
	require.NoError(t, err)

	require.True(t, summary.Current.Equal(decimal.NewFromInt(20)))
	require.True(t, summary.Days60.Equal(decimal.NewFromInt(100)))
	require.True(t, summary.Days90.Equal(decimal.NewFromInt(80)))
	require.True(t, summary.Over90.Equal(decimal.NewFromInt(200)))
	require.True(t, summary.Total.Equal(decimal.NewFromInt(400)))

	require.Len(t, perStore, 2)
	require.EqualValues(t, 2, perStore[0].StoreID)
	require.True(t, perStore[0].Summary.Total.Equal(decimal.NewFromInt(120)))
	require.EqualValues(t, 7, perStore[1].StoreID)
	require.True(t, perStore[1].Summary.Total.Equal(decimal.NewFromInt(280)))

	// The same book aged 25 days later shifts the freshest invoice out
	// of the current bucket.
	later, _, err := svc.ComputeARAging(context.Background(), asOf.AddDate(0, 0, 25))
	require.NoError(t, err)
	require.True(t, later.Current.IsZero())
	require.True(t, later.Days60.Equal(decimal.NewFromInt(20)))
	require.True(t, later.Total.Equal(decimal.NewFromInt(400)))
}

func TestComputeARAging_SkipsSettledInvoices(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	orders := &fakeOrders{orders: map[int64]*ports.OrderInfo{
		1: deliveredOrder(1, 2, 100, 45, asOf),
		2: deliveredOrder(2, 3, 60, 5, asOf),
	}}
	repo := memory.NewRepository()
	issuer := NewService(repo, orders, fixedClock(asOf.AddDate(0, 0, -45)))
	_, err := issuer.GenerateInvoice(context.Background(), 1, "billing")
	require.NoError(t, err)

	svc := NewService(repo, orders, fixedClock(asOf))
	_, err = svc.RecordPayment(context.Background(), ports.RecordPaymentInput{
		OrderID: 1, Amount: decimal.NewFromInt(100), Method: domain.MethodCash, ActorID: "collector",
	})
	require.NoError(t, err)

	// Order 2 is delivered but never invoiced, so nothing is receivable:
	// a paid invoice and a missing one both stay out of the book.
	summary, perStore, err := svc.ComputeARAging(context.Background(), time.Time{})
	require.NoError(t, err)
	require.True(t, summary.Total.IsZero())
	require.Empty(t, perStore)
}
