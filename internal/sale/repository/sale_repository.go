package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"newsstand/internal/domain"
	apperrors "newsstand/internal/errors"
	"newsstand/internal/uow"
)

// DBTX is satisfied by *sql.Tx and *sql.DB.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const saleColumns = `id, sold_at, total, note`

type MySQLSaleRepository struct {
	db    DBTX
	items *MySQLSaleItemRepository
}

var _ uow.SaleRepository = (*MySQLSaleRepository)(nil)

func NewMySQLSaleRepository(db DBTX) *MySQLSaleRepository {
	return &MySQLSaleRepository{db: db, items: NewMySQLSaleItemRepository(db)}
}

func (r *MySQLSaleRepository) FindByID(ctx context.Context, id int64, opts ...uow.QueryOption) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = ?`

	rec, err := scanSale(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sale by id: %w", err)
	}

	sales, err := r.attachItems(ctx, []domain.SaleRecord{rec}, uow.ApplyOptions(opts...))
	if err != nil {
		return nil, err
	}

	return sales[0], nil
}

func (r *MySQLSaleRepository) FindAll(ctx context.Context, opts ...uow.QueryOption) ([]*domain.Sale, error) {
	return r.list(ctx, uow.ApplyOptions(opts...), `
		SELECT `+saleColumns+`
		FROM sales
		ORDER BY sold_at DESC, id DESC`,
	)
}

// FindByPeriod includes both ends of the period.
func (r *MySQLSaleRepository) FindByPeriod(ctx context.Context, from, to time.Time, opts ...uow.QueryOption) ([]*domain.Sale, error) {
	return r.list(ctx, uow.ApplyOptions(opts...), `
		SELECT `+saleColumns+`
		FROM sales
		WHERE sold_at >= ? AND sold_at <= ?
		ORDER BY sold_at DESC, id DESC`,
		from, to,
	)
}

func (r *MySQLSaleRepository) FindByMonth(ctx context.Context, month time.Month, year int, loc *time.Location, opts ...uow.QueryOption) ([]*domain.Sale, error) {
	start, end := uow.MonthRange(month, year, loc)
	return r.list(ctx, uow.ApplyOptions(opts...), `
		SELECT `+saleColumns+`
		FROM sales
		WHERE sold_at >= ? AND sold_at < ?
		ORDER BY sold_at DESC, id DESC`,
		start, end,
	)
}

func (r *MySQLSaleRepository) CountByMonth(ctx context.Context, month time.Month, year int, loc *time.Location) (int, error) {
	start, end := uow.MonthRange(month, year, loc)

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales WHERE sold_at >= ? AND sold_at < ?`, start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sales by month: %w", err)
	}

	return count, nil
}

func (r *MySQLSaleRepository) TotalByMonth(ctx context.Context, month time.Month, year int, loc *time.Location) (decimal.Decimal, error) {
	start, end := uow.MonthRange(month, year, loc)

	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM sales WHERE sold_at >= ? AND sold_at < ?`, start, end,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing sales by month: %w", err)
	}

	return total, nil
}

// Add inserts the sale row and then one row per item, assigning the new ids
// back onto the aggregate.
func (r *MySQLSaleRepository) Add(ctx context.Context, sale *domain.Sale) error {
	query := `INSERT INTO sales (sold_at, total, note) VALUES (?, ?, ?)`

	rec := sale.Record()
	result, err := r.db.ExecContext(ctx, query, rec.SoldAt, rec.Total, rec.Note)
	if err != nil {
		return fmt.Errorf("inserting sale: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	sale.SetID(lastInsertID)

	for i, item := range sale.Items() {
		itemID, err := r.items.Insert(ctx, item.Record())
		if err != nil {
			return err
		}
		sale.SetItemID(i, itemID)
	}

	return nil
}

// Update writes the sale header (note and total); stored items are kept.
func (r *MySQLSaleRepository) Update(ctx context.Context, sale *domain.Sale) error {
	query := `UPDATE sales SET note = ?, total = ? WHERE id = ?`

	rec := sale.Record()
	result, err := r.db.ExecContext(ctx, query, rec.Note, rec.Total, rec.ID)
	if err != nil {
		return fmt.Errorf("updating sale: %w", err)
	}

	return requireRow(result, rec.ID)
}

// Remove deletes the item rows explicitly before the sale so the affected
// count includes them; the foreign key cascade covers the same rows.
func (r *MySQLSaleRepository) Remove(ctx context.Context, id int64) error {
	if err := r.items.DeleteBySaleID(ctx, id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting sale: %w", err)
	}

	return requireRow(result, id)
}

func (r *MySQLSaleRepository) list(ctx context.Context, o uow.QueryOptions, query string, args ...any) ([]*domain.Sale, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sales: %w", err)
	}
	defer rows.Close()

	var records []domain.SaleRecord
	for rows.Next() {
		rec, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sale row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sale rows: %w", err)
	}

	// Rows must be closed before the item query runs on the same transaction.
	rows.Close()

	return r.attachItems(ctx, records, o)
}

func (r *MySQLSaleRepository) attachItems(ctx context.Context, records []domain.SaleRecord, o uow.QueryOptions) ([]*domain.Sale, error) {
	if o.IncludeItems && len(records) > 0 {
		ids := make([]int64, len(records))
		for i, rec := range records {
			ids[i] = rec.ID
		}

		items, err := r.items.FindBySaleIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Items = items[records[i].ID]
		}
	}

	sales := make([]*domain.Sale, 0, len(records))
	for _, rec := range records {
		sales = append(sales, domain.RestoreSale(rec))
	}
	return sales, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSale(row scanner) (domain.SaleRecord, error) {
	var (
		rec  domain.SaleRecord
		note sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.SoldAt, &rec.Total, &note); err != nil {
		return domain.SaleRecord{}, err
	}
	if note.Valid {
		rec.Note = &note.String
	}
	return rec, nil
}

func requireRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("sale with id %d not found", id))
	}

	return nil
}
