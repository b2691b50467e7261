package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsstand/internal/domain"
	apperrors "newsstand/internal/errors"
	"newsstand/internal/testutil"
)

// Unit Tests

func TestNewMySQLProductRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLProductRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off`, escapeLike("50% off"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}

// Integration Tests

func newProduct(t *testing.T, name, price string, qty int, barcode *string) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, "desc "+name, decimal.RequireFromString(price), qty, barcode)
	require.NoError(t, err)
	return p
}

func TestProductRepository_AddAndFindByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLProductRepository(db)
	ctx := context.Background()

	code := "7891000000017"
	p := newProduct(t, "Jornal", "5.50", 40, &code)
	require.NoError(t, repo.Add(ctx, p))
	assert.NotZero(t, p.ID())

	found, err := repo.FindByID(ctx, p.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Jornal", found.Name())
	assert.Equal(t, "desc Jornal", found.Description())
	assert.True(t, decimal.RequireFromString("5.50").Equal(found.Price()))
	assert.Equal(t, 40, found.Quantity())
	require.NotNil(t, found.Barcode())
	assert.Equal(t, code, *found.Barcode())
	assert.True(t, found.IsActive())
	assert.WithinDuration(t, p.CreatedAt(), found.CreatedAt(), time.Second)
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLProductRepository(db)

	found, err := repo.FindByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProductRepository_NullBarcode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLProductRepository(db)
	ctx := context.Background()

	p := newProduct(t, "Bala", "0.25", 300, nil)
	require.NoError(t, repo.Add(ctx, p))

	found, err := repo.FindByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Nil(t, found.Barcode())
}

func TestProductRepository_Queries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLProductRepository(db)
	ctx := context.Background()

	code := "222"
	require.NoError(t, repo.Add(ctx, newProduct(t, "Revista", "19.90", 0, nil)))
	require.NoError(t, repo.Add(ctx, newProduct(t, "Jornal", "5.50", 20, &code)))
	require.NoError(t, repo.Add(ctx, newProduct(t, "Almanaque", "30.00", 3, nil)))
	inactive := newProduct(t, "Caneta", "2.00", 1, nil)
	inactive.Deactivate()
	require.NoError(t, repo.Add(ctx, inactive))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Almanaque", all[0].Name())

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	found, err := repo.SearchByName(ctx, "jorn")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Jornal", found[0].Name())

	byCode, err := repo.FindByBarcode(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, "Jornal", byCode.Name())

	low, err := repo.FindLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Revista", low[0].Name())
	assert.Equal(t, "Almanaque", low[1].Name())

	inStock, err := repo.CountInStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inStock)
}

func TestProductRepository_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLProductRepository(db)
	ctx := context.Background()

	p := newProduct(t, "Jornal", "5.50", 20, nil)
	require.NoError(t, repo.Add(ctx, p))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, p.AddStock(5))
	require.NoError(t, NewMySQLProductRepository(tx).Update(ctx, p))
	require.NoError(t, tx.Commit())

	found, err := repo.FindByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 25, found.Quantity())

	// Unchanged row still counts as found.
	assert.NoError(t, repo.Update(ctx, found))
}

func TestProductRepository_UpdateAndRemove_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLProductRepository(db)
	ctx := context.Background()

	ghost := domain.RestoreProduct(domain.ProductRecord{ID: 9999, Name: "x"})
	_, ok := apperrors.IsNotFoundError(repo.Update(ctx, ghost))
	assert.True(t, ok)

	_, ok = apperrors.IsNotFoundError(repo.Remove(ctx, 9999))
	assert.True(t, ok)
}

func TestProductRepository_TransactionRollback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewMySQLProductRepository(tx).Add(ctx, newProduct(t, "Gibi", "8.90", 1, nil)))
	require.NoError(t, tx.Rollback())

	all, err := NewMySQLProductRepository(db).FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
