package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ordersmemory "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	refmemory "github.com/Apurer/go-distribution-api/internal/domains/refdata/adapters/memory"
	refdomain "github.com/Apurer/go-distribution-api/internal/domains/refdata/domain"
)

type fakeStock struct {
	reserves [][]ports.StockLine
	releases [][]ports.StockLine
	fail     error
}

func (f *fakeStock) Reserve(_ context.Context, lines []ports.StockLine, _, _ string) error {
	if f.fail != nil {
		return f.fail
	}
	f.reserves = append(f.reserves, lines)
	return nil
}

func (f *fakeStock) Release(_ context.Context, lines []ports.StockLine, _, _ string) error {
	f.releases = append(f.releases, lines)
	return nil
}

type fakePayments struct {
	paid map[int64]decimal.Decimal
}

func (f *fakePayments) TotalPaid(_ context.Context, orderID int64) (decimal.Decimal, error) {
	if amount, ok := f.paid[orderID]; ok {
		return amount, nil
	}
	return decimal.Zero, nil
}

func seededCatalog() *refmemory.Lookup {
	catalog := refmemory.NewLookup()
	catalog.SeedStore(refdomain.Store{ID: 1, Name: "Sari Sari Uno", IsActive: true})
	catalog.SeedStore(refdomain.Store{ID: 2, Name: "Limited", CreditLimit: decimal.NewFromFloat(50), IsActive: true})
	catalog.SeedStore(refdomain.Store{ID: 3, Name: "Shut", IsActive: false})
	catalog.SeedProduct(refdomain.Product{ID: 1, SKU: "SKU-1", UnitPrice: decimal.NewFromFloat(10), IsActive: true})
	catalog.SeedProduct(refdomain.Product{ID: 2, SKU: "SKU-2", UnitPrice: decimal.NewFromFloat(15), IsActive: true})
	catalog.SeedProduct(refdomain.Product{ID: 9, SKU: "SKU-9", UnitPrice: decimal.NewFromFloat(99), IsActive: false})
	catalog.SeedWarehouse(refdomain.Warehouse{ID: 1, Name: "Main", IsActive: true})
	return catalog
}

func defaultInput() ports.CreateOrderInput {
	return ports.CreateOrderInput{
		StoreID:     1,
		WarehouseID: 1,
		AgentID:     "agent-7",
		Items: []ports.ItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		ActorID: "tester",
	}
}

func TestCreateOrder_CapturesCatalogPrices(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithTaxRate(decimal.Zero))

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)
	require.NotEmpty(t, order.Reference)
	require.True(t, order.Subtotal.Equal(decimal.NewFromFloat(35)), "subtotal %s", order.Subtotal)
	require.True(t, order.Total.Equal(decimal.NewFromFloat(35)))
	require.Equal(t, int64(1), order.Meta.Version)
	require.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromFloat(10)))
}

func TestCreateOrder_AppliesTaxRate(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithTaxRate(decimal.NewFromFloat(0.12)))

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	require.True(t, order.Tax.Equal(decimal.NewFromFloat(4.2)), "tax %s", order.Tax)
	require.True(t, order.Total.Equal(decimal.NewFromFloat(39.2)))
}

func TestCreateOrder_RejectsInactiveStoreAndProduct(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog())

	input := defaultInput()
	input.StoreID = 3
	_, err := svc.CreateOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)

	input = defaultInput()
	input.Items = []ports.ItemInput{{ProductID: 9, Quantity: 1}}
	_, err = svc.CreateOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateOrder_UnknownStore(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog())

	input := defaultInput()
	input.StoreID = 42
	_, err := svc.CreateOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateOrder_CreditLimit(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithTaxRate(decimal.Zero))

	// First order for the limited store fits under the 50 ceiling.
	input := defaultInput()
	input.StoreID = 2
	_, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	// A second identical order would push outstanding to 70.
	_, err = svc.CreateOrder(context.Background(), input)
	require.ErrorIs(t, err, domain.ErrCreditLimitBreach)
}

func TestCreateOrder_CreditLimitCountsPayments(t *testing.T) {
	payments := &fakePayments{paid: map[int64]decimal.Decimal{}}
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(),
		WithTaxRate(decimal.Zero),
		WithPaymentReader(payments),
	)

	input := defaultInput()
	input.StoreID = 2
	first, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	// Paying off the first order frees the ceiling for the second.
	payments.paid[first.ID] = first.Total
	_, err = svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
}

func TestTransition_PackReservesStock(t *testing.T) {
	stock := &fakeStock{}
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(),
		WithTaxRate(decimal.Zero),
		WithStockReserver(stock),
	)

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), order.ID, domain.StatusConfirmed, "tester")
	require.NoError(t, err)
	packed, err := svc.Transition(context.Background(), order.ID, domain.StatusPacked, "tester")
	require.NoError(t, err)

	require.Equal(t, domain.StatusPacked, packed.Status)
	require.Len(t, stock.reserves, 1)
	require.Equal(t, []ports.StockLine{
		{ProductID: 1, WarehouseID: 1, Quantity: 2},
		{ProductID: 2, WarehouseID: 1, Quantity: 1},
	}, stock.reserves[0])
}

func TestTransition_ReserveFailureKeepsStatus(t *testing.T) {
	stock := &fakeStock{fail: context.DeadlineExceeded}
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithStockReserver(stock))

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), order.ID, domain.StatusConfirmed, "tester")
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, domain.StatusPacked, "tester")
	require.Error(t, err)

	current, err := svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, current.Status)
}

func TestTransition_CancelAfterPackReleasesStock(t *testing.T) {
	stock := &fakeStock{}
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithStockReserver(stock))

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	for _, target := range []domain.Status{domain.StatusConfirmed, domain.StatusPacked} {
		_, err = svc.Transition(context.Background(), order.ID, target, "tester")
		require.NoError(t, err)
	}

	cancelled, err := svc.Transition(context.Background(), order.ID, domain.StatusCancelled, "tester")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Len(t, stock.releases, 1)
}

func TestTransition_CancelBeforePackSkipsRelease(t *testing.T) {
	stock := &fakeStock{}
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithStockReserver(stock))

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), order.ID, domain.StatusCancelled, "tester")
	require.NoError(t, err)
	require.Empty(t, stock.releases)
}

func TestTransition_AppendsAuditTrail(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog())

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), order.ID, domain.StatusConfirmed, "warehouse-1")
	require.NoError(t, err)

	trail, err := svc.AuditTrail(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, domain.StatusPending, trail[0].FromStatus)
	require.Equal(t, domain.StatusConfirmed, trail[0].ToStatus)
	require.Equal(t, "warehouse-1", trail[0].ActorID)
}

func TestEditOrder_OnlyWhilePending(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(), WithTaxRate(decimal.Zero))

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)

	edited, err := svc.EditOrder(context.Background(), order.ID, []ports.ItemInput{{ProductID: 1, Quantity: 5}}, "tester")
	require.NoError(t, err)
	require.True(t, edited.Total.Equal(decimal.NewFromFloat(50)))

	_, err = svc.Transition(context.Background(), order.ID, domain.StatusConfirmed, "tester")
	require.NoError(t, err)
	_, err = svc.EditOrder(context.Background(), order.ID, []ports.ItemInput{{ProductID: 2, Quantity: 1}}, "tester")
	require.ErrorIs(t, err, domain.ErrItemsLocked)
}

func TestBalance_PartialPayment(t *testing.T) {
	payments := &fakePayments{paid: map[int64]decimal.Decimal{}}
	svc := NewService(ordersmemory.NewRepository(), seededCatalog(),
		WithTaxRate(decimal.Zero),
		WithPaymentReader(payments),
	)

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)
	payments.paid[order.ID] = decimal.NewFromFloat(20)

	balance, err := svc.Balance(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, balance.TotalPaid.Equal(decimal.NewFromFloat(20)))
	require.True(t, balance.RemainingBalance.Equal(decimal.NewFromFloat(15)))
	require.True(t, balance.HasPartialPayment)
}

func TestSetPaid_Idempotent(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), seededCatalog())

	order, err := svc.CreateOrder(context.Background(), defaultInput())
	require.NoError(t, err)

	require.NoError(t, svc.SetPaid(context.Background(), order.ID, true, "system"))
	paid, err := svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	version := paid.Meta.Version

	require.NoError(t, svc.SetPaid(context.Background(), order.ID, true, "system"))
	again, err := svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, version, again.Meta.Version)
}
