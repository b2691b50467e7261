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
	"newsstand/internal/uow"
)

// Unit Tests

func TestNewMySQLSaleRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLSaleRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.NotNil(t, repo.items)
}

// Integration Tests

func insertProduct(t *testing.T, db *sql.DB, name string, price string) *domain.Product {
	t.Helper()

	p, err := domain.NewProduct(name, "", decimal.RequireFromString(price), 10, nil)
	require.NoError(t, err)

	result, err := db.Exec(`
		INSERT INTO products (name, description, price, quantity, barcode, created_at, is_active)
		VALUES (?, '', ?, 10, NULL, ?, 1)`,
		name, p.Price(), p.CreatedAt(),
	)
	require.NoError(t, err)

	id, err := result.LastInsertId()
	require.NoError(t, err)
	p.SetID(id)
	return p
}

type line struct {
	product  *domain.Product
	quantity int
}

func newSale(t *testing.T, at time.Time, lines ...line) *domain.Sale {
	t.Helper()

	sale, err := domain.NewSale(nil, at)
	require.NoError(t, err)
	for _, l := range lines {
		require.NoError(t, sale.AddItem(l.product, l.quantity))
	}
	return sale
}

func TestSaleRepository_AddAndFindByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	caderno := insertProduct(t, db, "Caderno", "5.00")
	caneta := insertProduct(t, db, "Caneta", "2.50")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	sale := newSale(t, time.Now().UTC(), line{caderno, 2}, line{caneta, 3})
	require.NoError(t, NewMySQLSaleRepository(tx).Add(ctx, sale))
	require.NoError(t, tx.Commit())

	assert.NotZero(t, sale.ID())

	repo := NewMySQLSaleRepository(db)

	header, err := repo.FindByID(ctx, sale.ID())
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.True(t, decimal.RequireFromString("17.50").Equal(header.Total()))
	assert.Empty(t, header.Items())
	assert.Nil(t, header.Note())

	full, err := repo.FindByID(ctx, sale.ID(), uow.WithItems())
	require.NoError(t, err)
	items := full.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Caderno", items[0].ProductName())
	assert.Equal(t, 2, items[0].Quantity())
	assert.True(t, decimal.RequireFromString("7.50").Equal(items[1].LineTotal()))
	assert.Equal(t, sale.ID(), items[1].SaleID())
}

func TestSaleRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	sale, err := NewMySQLSaleRepository(db).FindByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, sale)
}

func TestSaleRepository_MonthQueries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	p := insertProduct(t, db, "Jornal", "5.00")
	repo := NewMySQLSaleRepository(db)

	dates := []time.Time{
		time.Date(2024, 4, 30, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, at := range dates {
		require.NoError(t, repo.Add(ctx, newSale(t, at, line{p, i + 1})))
	}

	may, err := repo.FindByMonth(ctx, time.May, 2024, time.UTC, uow.WithItems())
	require.NoError(t, err)
	require.Len(t, may, 2)
	assert.True(t, dates[2].Equal(may[0].SoldAt()), "newest first")
	assert.Len(t, may[1].Items(), 1)

	count, err := repo.CountByMonth(ctx, time.May, 2024, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := repo.TotalByMonth(ctx, time.May, 2024, time.UTC)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(total))

	empty, err := repo.TotalByMonth(ctx, time.January, 2020, time.UTC)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	period, err := repo.FindByPeriod(ctx, dates[0], dates[1])
	require.NoError(t, err)
	assert.Len(t, period, 2)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSaleRepository_UpdateAndRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	p := insertProduct(t, db, "Gibi", "8.90")
	repo := NewMySQLSaleRepository(db)

	sale := newSale(t, time.Now().UTC(), line{p, 1})
	require.NoError(t, repo.Add(ctx, sale))

	note := "troco em moedas"
	require.NoError(t, sale.UpdateNote(&note))
	require.NoError(t, repo.Update(ctx, sale))

	found, err := repo.FindByID(ctx, sale.ID())
	require.NoError(t, err)
	require.NotNil(t, found.Note())
	assert.Equal(t, note, *found.Note())

	require.NoError(t, repo.Remove(ctx, sale.ID()))

	var items int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sale_items WHERE sale_id = ?`, sale.ID()).Scan(&items))
	assert.Zero(t, items)

	_, ok := apperrors.IsNotFoundError(repo.Remove(ctx, sale.ID()))
	assert.True(t, ok)
	_, ok = apperrors.IsNotFoundError(repo.Update(ctx, sale))
	assert.True(t, ok)
}

func TestSaleItemRepository_FindBySaleIDs_Empty(t *testing.T) {
	items, err := NewMySQLSaleItemRepository(&sql.DB{}).FindBySaleIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, items)
}
