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

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
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

func testInventory(productID, warehouseID, level int64) *domain.Inventory {
	inv := &domain.Inventory{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		StockLevel:   level,
		ReorderLevel: 10,
		MaxStock:     500,
	}
	inv.Meta.Stamp("seed", time.Now().UTC())
	return inv
}

func TestPostgresRepository_CreateAndLookup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testInventory(1, 1, 50))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.EqualValues(t, 1, created.Meta.Version)

	byPair, err := repo.GetByProductWarehouse(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPair.ID)
	assert.EqualValues(t, 50, byPair.StockLevel)

	_, err = repo.GetByProductWarehouse(ctx, 1, 99)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_DuplicatePairRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, testInventory(1, 1, 50))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testInventory(1, 1, 10))
	assert.ErrorIs(t, err, ports.ErrDuplicateRecord)
}

func TestPostgresRepository_UpdateAppendsLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testInventory(1, 1, 50))
	require.NoError(t, err)

	movement, err := created.Apply(uuid.NewString(), domain.MovementOrder, -8, "ORD-1", "", "picker", time.Now().UTC(), domain.ApplyOptions{})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created, movement)
	require.NoError(t, err)
	assert.EqualValues(t, 42, updated.StockLevel)
	assert.EqualValues(t, 2, updated.Meta.Version)

	movements, err := repo.Movements(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementOrder, movements[0].Type)
	assert.EqualValues(t, -8, movements[0].Quantity)
	assert.EqualValues(t, 50, movements[0].PreviousStock)
	assert.EqualValues(t, 42, movements[0].NewStock)

	require.NoError(t, updated.VerifyAgainst(movementsWithOpening(movements, 50)))
}

// movementsWithOpening prepends a synthetic opening entry so the fold
// identity holds for records created with a non-zero level.
func movementsWithOpening(movements []domain.Movement, opening int64) []domain.Movement {
	out := make([]domain.Movement, 0, len(movements)+1)
	out = append(out, domain.Movement{Quantity: opening, PreviousStock: 0, NewStock: opening})
	return append(out, movements...)
}

func TestPostgresRepository_StaleUpdateRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testInventory(1, 1, 50))
	require.NoError(t, err)

	stale, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	m1, err := created.Apply(uuid.NewString(), domain.MovementOrder, -5, "ORD-1", "", "picker", time.Now().UTC(), domain.ApplyOptions{})
	require.NoError(t, err)
	_, err = repo.Update(ctx, created, m1)
	require.NoError(t, err)

	m2, err := stale.Apply(uuid.NewString(), domain.MovementOrder, -5, "ORD-2", "", "picker", time.Now().UTC(), domain.ApplyOptions{})
	require.NoError(t, err)
	_, err = repo.Update(ctx, stale, m2)
	assert.ErrorIs(t, err, ports.ErrConcurrentModification)
}

func TestPostgresRepository_UpdateBatchIsAtomic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, testInventory(1, 1, 50))
	require.NoError(t, err)
	second, err := repo.Create(ctx, testInventory(2, 1, 30))
	require.NoError(t, err)

	now := time.Now().UTC()
	m1, err := first.Apply(uuid.NewString(), domain.MovementOrder, -5, "ORD-1", "", "picker", now, domain.ApplyOptions{})
	require.NoError(t, err)
	m2, err := second.Apply(uuid.NewString(), domain.MovementOrder, -3, "ORD-1", "", "picker", now, domain.ApplyOptions{})
	require.NoError(t, err)

	// Make the second write stale so the whole batch must roll back.
	second.Meta.Version = 99
	err = repo.UpdateBatch(ctx, []*domain.Inventory{first, second}, []domain.Movement{m1, m2})
	assert.ErrorIs(t, err, ports.ErrConcurrentModification)

	reloaded, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, reloaded.StockLevel)

	movements, err := repo.Movements(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}
