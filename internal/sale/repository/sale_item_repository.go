package repository

import (
	"context"
	"fmt"
	"strings"

	"newsstand/internal/domain"
)

type MySQLSaleItemRepository struct {
	db DBTX
}

func NewMySQLSaleItemRepository(db DBTX) *MySQLSaleItemRepository {
	return &MySQLSaleItemRepository{db: db}
}

func (r *MySQLSaleItemRepository) Insert(ctx context.Context, item domain.SaleItemRecord) (int64, error) {
	query := `
		INSERT INTO sale_items (sale_id, product_id, product_name, unit_price, quantity, line_total)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		item.SaleID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sale item: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return lastInsertID, nil
}

// FindBySaleIDs groups the items of the given sales by sale id, each group in
// insertion order.
func (r *MySQLSaleItemRepository) FindBySaleIDs(ctx context.Context, saleIDs []int64) (map[int64][]domain.SaleItemRecord, error) {
	if len(saleIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(saleIDs))
	args := make([]any, len(saleIDs))
	for i, id := range saleIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, sale_id, product_id, product_name, unit_price, quantity, line_total
		FROM sale_items
		WHERE sale_id IN (%s)
		ORDER BY sale_id, id`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sale items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.SaleItemRecord, len(saleIDs))
	for rows.Next() {
		var it domain.SaleItemRecord
		err := rows.Scan(
			&it.ID, &it.SaleID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning sale item row: %w", err)
		}
		items[it.SaleID] = append(items[it.SaleID], it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sale item rows: %w", err)
	}

	return items, nil
}

func (r *MySQLSaleItemRepository) DeleteBySaleID(ctx context.Context, saleID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = ?`, saleID); err != nil {
		return fmt.Errorf("deleting sale items: %w", err)
	}
	return nil
}
