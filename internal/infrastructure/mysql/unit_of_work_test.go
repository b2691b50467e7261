package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsstand/internal/domain"
	apperrors "newsstand/internal/errors"
	"newsstand/internal/testutil"
)

func TestFactory_CommitCountsRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	f := NewFactory(db)

	u, err := f.Begin(ctx)
	require.NoError(t, err)
	defer u.Rollback()

	p, err := domain.NewProduct("Caderno", "", decimal.RequireFromString("5.00"), 10, nil)
	require.NoError(t, err)
	require.NoError(t, u.Products().Add(ctx, p))

	sale, err := domain.NewSale(nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(p, 2))
	require.NoError(t, sale.AddItem(p, 1))
	require.NoError(t, u.Sales().Add(ctx, sale))

	rows, err := u.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(4), rows)

	assert.NoError(t, u.Rollback(), "rollback after commit is a no-op")
}

func TestFactory_RollbackDiscards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	f := NewFactory(db)

	u, err := f.Begin(ctx)
	require.NoError(t, err)

	p, err := domain.NewProduct("Gibi", "", decimal.RequireFromString("8.90"), 1, nil)
	require.NoError(t, err)
	require.NoError(t, u.Products().Add(ctx, p))
	require.NoError(t, u.Rollback())
	require.NoError(t, u.Rollback())

	r, err := f.BeginReadOnly(ctx)
	require.NoError(t, err)
	defer r.Rollback()

	found, err := r.Products().FindByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFactory_RemoveReferencedProductConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	f := NewFactory(db)

	u, err := f.Begin(ctx)
	require.NoError(t, err)
	p, err := domain.NewProduct("Jornal", "", decimal.RequireFromString("5.50"), 10, nil)
	require.NoError(t, err)
	require.NoError(t, u.Products().Add(ctx, p))
	sale, err := domain.NewSale(nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(p, 1))
	require.NoError(t, u.Sales().Add(ctx, sale))
	_, err = u.Commit()
	require.NoError(t, err)

	u, err = f.Begin(ctx)
	require.NoError(t, err)
	defer u.Rollback()

	_, ok := apperrors.IsConflictError(u.Products().Remove(ctx, p.ID()))
	assert.True(t, ok)
}

func TestFactory_SaleWithUnknownProductConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	u, err := NewFactory(db).Begin(ctx)
	require.NoError(t, err)
	defer u.Rollback()

	ghost := domain.RestoreProduct(domain.ProductRecord{ID: 424242, Name: "Fantasma", Price: decimal.NewFromInt(1)})
	sale, err := domain.NewSale(nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(ghost, 1))

	_, ok := apperrors.IsConflictError(u.Sales().Add(ctx, sale))
	assert.True(t, ok)
}
