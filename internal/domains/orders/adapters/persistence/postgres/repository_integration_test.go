//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	"github.com/Apurer/go-distribution-api/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("distribution_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func testOrder(t *testing.T, reference string, storeID int64) *domain.Order {
	t.Helper()
	items := []domain.Item{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(15)},
	}
	order, err := domain.NewOrder(storeID, 1, "agent-1", items, decimal.NewFromFloat(0.12))
	require.NoError(t, err)
	order.Reference = reference
	order.Meta.Stamp("agent-1", time.Now().UTC())
	return order
}

func TestPostgresRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testOrder(t, "ORD-int-1", 1))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.EqualValues(t, 1, created.Meta.Version)

	retrieved, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-int-1", retrieved.Reference)
	assert.Equal(t, domain.StatusPending, retrieved.Status)
	assert.Len(t, retrieved.Items, 2)
	assert.True(t, retrieved.Subtotal.Equal(decimal.NewFromInt(35)))
	assert.True(t, retrieved.Total.Equal(decimal.NewFromFloat(39.2)))
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_SaveGuardsVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testOrder(t, "ORD-int-2", 1))
	require.NoError(t, err)

	stale, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	created.Status = domain.StatusConfirmed
	created.Meta.Touch("clerk", time.Now().UTC())
	updated, err := repo.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.EqualValues(t, 2, updated.Meta.Version)

	stale.Status = domain.StatusCancelled
	_, err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, ports.ErrConcurrentModification)
}

func TestPostgresRepository_SaveReplacesItems(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testOrder(t, "ORD-int-3", 1))
	require.NoError(t, err)

	err = created.ReplaceItems([]domain.Item{
		{ProductID: 3, Quantity: 5, UnitPrice: decimal.NewFromInt(4)},
	}, decimal.NewFromFloat(0.12))
	require.NoError(t, err)
	created.Meta.Touch("agent-1", time.Now().UTC())

	updated, err := repo.Save(ctx, created)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.EqualValues(t, 3, updated.Items[0].ProductID)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(20)))
}

func TestPostgresRepository_Listing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, testOrder(t, "ORD-int-4", 1))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testOrder(t, "ORD-int-5", 2))
	require.NoError(t, err)

	first.Status = domain.StatusConfirmed
	first.Meta.Touch("clerk", time.Now().UTC())
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	byStore, err := repo.ListByStore(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, byStore, 1)
	assert.Equal(t, "ORD-int-5", byStore[0].Reference)

	confirmed, err := repo.ListByStatus(ctx, []domain.Status{domain.StatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostgresRepository_AuditTrail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testOrder(t, "ORD-int-6", 1))
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	entries := []domain.AuditEntry{
		{OrderID: created.ID, FromStatus: domain.StatusPending, ToStatus: domain.StatusConfirmed, ActorID: "clerk", At: base},
		{OrderID: created.ID, FromStatus: domain.StatusConfirmed, ToStatus: domain.StatusPacked, ActorID: "picker", At: base.Add(time.Minute)},
	}
	for _, entry := range entries {
		require.NoError(t, repo.AppendAudit(ctx, entry))
	}

	trail, err := repo.AuditTrail(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, domain.StatusConfirmed, trail[0].ToStatus)
	assert.Equal(t, domain.StatusPacked, trail[1].ToStatus)
}
