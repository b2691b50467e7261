package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	productrepo "newsstand/internal/product/repository"
	salerepo "newsstand/internal/sale/repository"
	"newsstand/internal/uow"
)

// Factory opens one *sql.Tx per unit of work.
type Factory struct {
	db *sql.DB
}

var _ uow.Factory = (*Factory)(nil)

func NewFactory(db *sql.DB) *Factory {
	return &Factory{db: db}
}

func (f *Factory) Begin(ctx context.Context) (uow.UnitOfWork, error) {
	return f.begin(ctx, nil)
}

func (f *Factory) BeginReadOnly(ctx context.Context) (uow.UnitOfWork, error) {
	return f.begin(ctx, &sql.TxOptions{ReadOnly: true})
}

func (f *Factory) begin(ctx context.Context, opts *sql.TxOptions) (uow.UnitOfWork, error) {
	tx, err := f.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	exec := &countingTx{tx: tx}
	return &unitOfWork{
		tx:       tx,
		exec:     exec,
		products: productrepo.NewMySQLProductRepository(exec),
		sales:    salerepo.NewMySQLSaleRepository(exec),
	}, nil
}

type unitOfWork struct {
	tx       *sql.Tx
	exec     *countingTx
	products *productrepo.MySQLProductRepository
	sales    *salerepo.MySQLSaleRepository
}

func (u *unitOfWork) Products() uow.ProductRepository {
	return u.products
}

func (u *unitOfWork) Sales() uow.SaleRepository {
	return u.sales
}

func (u *unitOfWork) Commit() (int64, error) {
	if err := u.tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return u.exec.affected, nil
}

// Rollback is a no-op once the transaction has been committed or rolled back.
func (u *unitOfWork) Rollback() error {
	err := u.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// countingTx sums rows affected by every statement and maps driver
// constraint errors before the repositories see them.
type countingTx struct {
	tx       *sql.Tx
	affected int64
}

func (c *countingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := c.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	if n, err := result.RowsAffected(); err == nil {
		c.affected += n
	}
	return result, nil
}

func (c *countingTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (c *countingTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.tx.QueryRowContext(ctx, query, args...)
}
