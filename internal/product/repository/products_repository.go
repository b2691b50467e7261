package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

const productColumns = `id, name, description, price, quantity, barcode, created_at, is_active`

type MySQLProductRepository struct {
	db DBTX
}

var _ uow.ProductRepository = (*MySQLProductRepository)(nil)

func NewMySQLProductRepository(db DBTX) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func (r *MySQLProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}

	return product, nil
}

func (r *MySQLProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
}

func (r *MySQLProductRepository) FindActive(ctx context.Context) ([]*domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE is_active = 1 ORDER BY name, id`)
}

// SearchByName matches the query anywhere in name or description.
func (r *MySQLProductRepository) SearchByName(ctx context.Context, query string) ([]*domain.Product, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE name LIKE ? OR description LIKE ?
		ORDER BY name, id`,
		pattern, pattern,
	)
}

func (r *MySQLProductRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = ? ORDER BY id LIMIT 1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, barcode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by barcode: %w", err)
	}

	return product, nil
}

func (r *MySQLProductRepository) FindLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active = 1 AND quantity <= ?
		ORDER BY quantity, name, id`,
		threshold,
	)
}

func (r *MySQLProductRepository) CountInStock(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE is_active = 1 AND quantity > 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting products in stock: %w", err)
	}
	return count, nil
}

func (r *MySQLProductRepository) Add(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, quantity, barcode, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	rec := product.Record()
	result, err := r.db.ExecContext(ctx, query,
		rec.Name, rec.Description, rec.Price, rec.Quantity, rec.Barcode, rec.CreatedAt, rec.Active,
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	product.SetID(lastInsertID)
	return nil
}

func (r *MySQLProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, quantity = ?, barcode = ?, is_active = ?
		WHERE id = ?`

	rec := product.Record()
	result, err := r.db.ExecContext(ctx, query,
		rec.Name, rec.Description, rec.Price, rec.Quantity, rec.Barcode, rec.Active, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	return requireRow(result, rec.ID)
}

// Remove fails with a ConflictError (mapped by the unit of work) when a sale
// item still references the product.
func (r *MySQLProductRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	return requireRow(result, id)
}

func (r *MySQLProductRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		rec     domain.ProductRecord
		barcode sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.Price, &rec.Quantity,
		&barcode, &rec.CreatedAt, &rec.Active,
	)
	if err != nil {
		return nil, err
	}
	if barcode.Valid {
		rec.Barcode = &barcode.String
	}
	return domain.RestoreProduct(rec), nil
}

func requireRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
