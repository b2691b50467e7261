package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"newsstand/internal/domain"
	apperrors "newsstand/internal/errors"
)

type productRepository struct {
	u *unitOfWork
}

func (r *productRepository) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	rec, ok := r.u.working.products[id]
	if !ok {
		return nil, nil
	}
	return domain.RestoreProduct(rec), nil
}

func (r *productRepository) FindAll(_ context.Context) ([]*domain.Product, error) {
	return r.filter(func(domain.ProductRecord) bool { return true }), nil
}

func (r *productRepository) FindActive(_ context.Context) ([]*domain.Product, error) {
	return r.filter(func(p domain.ProductRecord) bool { return p.Active }), nil
}

// SearchByName matches name or description, case-insensitively like the
// store's default collation.
func (r *productRepository) SearchByName(_ context.Context, query string) ([]*domain.Product, error) {
	q := strings.ToLower(query)
	return r.filter(func(p domain.ProductRecord) bool {
		return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q)
	}), nil
}

func (r *productRepository) FindByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	for _, p := range r.sorted() {
		if p.Barcode != nil && *p.Barcode == barcode {
			return domain.RestoreProduct(p), nil
		}
	}
	return nil, nil
}

func (r *productRepository) FindLowStock(_ context.Context, threshold int) ([]*domain.Product, error) {
	var low []domain.ProductRecord
	for _, p := range r.sorted() {
		if p.Active && p.Quantity <= threshold {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Quantity < low[j].Quantity })

	products := make([]*domain.Product, 0, len(low))
	for _, p := range low {
		products = append(products, domain.RestoreProduct(p))
	}
	return products, nil
}

func (r *productRepository) CountInStock(_ context.Context) (int, error) {
	count := 0
	for _, p := range r.u.working.products {
		if p.Active && p.Quantity > 0 {
			count++
		}
	}
	return count, nil
}

func (r *productRepository) Add(_ context.Context, product *domain.Product) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	r.u.working.nextProductID++
	product.SetID(r.u.working.nextProductID)
	r.u.working.products[product.ID()] = product.Record()
	r.u.affected++
	return nil
}

func (r *productRepository) Update(_ context.Context, product *domain.Product) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	if _, ok := r.u.working.products[product.ID()]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", product.ID()))
	}
	r.u.working.products[product.ID()] = product.Record()
	r.u.affected++
	return nil
}

// Remove refuses to delete a product still referenced by a sale item.
func (r *productRepository) Remove(_ context.Context, id int64) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	if _, ok := r.u.working.products[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	for _, sale := range r.u.working.sales {
		for _, item := range sale.Items {
			if item.ProductID == id {
				return apperrors.NewConflictError(fmt.Sprintf("product with id %d is referenced by sale %d", id, sale.ID))
			}
		}
	}
	delete(r.u.working.products, id)
	r.u.affected++
	return nil
}

// sorted returns records ordered by name, then id. Names compare ignoring
// case and accents, close to the MySQL column collation.
func (r *productRepository) sorted() []domain.ProductRecord {
	records := make([]domain.ProductRecord, 0, len(r.u.working.products))
	for _, p := range r.u.working.products {
		records = append(records, p)
	}

	names := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.Slice(records, func(i, j int) bool {
		if c := names.CompareString(records[i].Name, records[j].Name); c != 0 {
			return c < 0
		}
		return records[i].ID < records[j].ID
	})
	return records
}

func (r *productRepository) filter(keep func(domain.ProductRecord) bool) []*domain.Product {
	products := []*domain.Product{}
	for _, p := range r.sorted() {
		if keep(p) {
			products = append(products, domain.RestoreProduct(p))
		}
	}
	return products
}
