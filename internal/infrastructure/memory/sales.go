package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"newsstand/internal/domain"
	apperrors "newsstand/internal/errors"
	"newsstand/internal/uow"
)

type saleRepository struct {
	u *unitOfWork
}

func (r *saleRepository) FindByID(_ context.Context, id int64, opts ...uow.QueryOption) (*domain.Sale, error) {
	rec, ok := r.u.working.sales[id]
	if !ok {
		return nil, nil
	}
	return restore(rec, uow.ApplyOptions(opts...)), nil
}

func (r *saleRepository) FindAll(_ context.Context, opts ...uow.QueryOption) ([]*domain.Sale, error) {
	return r.find(func(domain.SaleRecord) bool { return true }, opts...), nil
}

// FindByPeriod includes both ends of the period.
func (r *saleRepository) FindByPeriod(_ context.Context, from, to time.Time, opts ...uow.QueryOption) ([]*domain.Sale, error) {
	return r.find(func(s domain.SaleRecord) bool {
		return !s.SoldAt.Before(from) && !s.SoldAt.After(to)
	}, opts...), nil
}

func (r *saleRepository) FindByMonth(_ context.Context, month time.Month, year int, loc *time.Location, opts ...uow.QueryOption) ([]*domain.Sale, error) {
	return r.find(inMonth(month, year, loc), opts...), nil
}

func (r *saleRepository) CountByMonth(_ context.Context, month time.Month, year int, loc *time.Location) (int, error) {
	match := inMonth(month, year, loc)
	count := 0
	for _, s := range r.u.working.sales {
		if match(s) {
			count++
		}
	}
	return count, nil
}

func (r *saleRepository) TotalByMonth(_ context.Context, month time.Month, year int, loc *time.Location) (decimal.Decimal, error) {
	match := inMonth(month, year, loc)
	total := decimal.Zero
	for _, s := range r.u.working.sales {
		if match(s) {
			total = total.Add(s.Total)
		}
	}
	return total, nil
}

// Add stores the sale and its items; every item must reference an existing
// product.
func (r *saleRepository) Add(_ context.Context, sale *domain.Sale) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	for _, item := range sale.Items() {
		if _, ok := r.u.working.products[item.ProductID()]; !ok {
			return apperrors.NewConflictError(fmt.Sprintf("product with id %d does not exist", item.ProductID()))
		}
	}

	r.u.working.nextSaleID++
	sale.SetID(r.u.working.nextSaleID)
	for i := range sale.ItemCount() {
		r.u.working.nextItemID++
		sale.SetItemID(i, r.u.working.nextItemID)
	}

	r.u.working.sales[sale.ID()] = sale.Record()
	r.u.affected += int64(1 + sale.ItemCount())
	return nil
}

// Update writes the sale header (note and total); stored items are kept.
func (r *saleRepository) Update(_ context.Context, sale *domain.Sale) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	stored, ok := r.u.working.sales[sale.ID()]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("sale with id %d not found", sale.ID()))
	}
	rec := sale.Record()
	stored.Note = rec.Note
	stored.Total = rec.Total
	r.u.working.sales[sale.ID()] = stored
	r.u.affected++
	return nil
}

// Remove deletes the sale together with its items.
func (r *saleRepository) Remove(_ context.Context, id int64) error {
	if err := r.u.checkWritable(); err != nil {
		return err
	}
	stored, ok := r.u.working.sales[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("sale with id %d not found", id))
	}
	delete(r.u.working.sales, id)
	r.u.affected += int64(1 + len(stored.Items))
	return nil
}

// find returns matching sales newest first.
func (r *saleRepository) find(match func(domain.SaleRecord) bool, opts ...uow.QueryOption) []*domain.Sale {
	o := uow.ApplyOptions(opts...)

	var records []domain.SaleRecord
	for _, s := range r.u.working.sales {
		if match(s) {
			records = append(records, s)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].SoldAt.Equal(records[j].SoldAt) {
			return records[i].SoldAt.After(records[j].SoldAt)
		}
		return records[i].ID > records[j].ID
	})

	sales := make([]*domain.Sale, 0, len(records))
	for _, rec := range records {
		sales = append(sales, restore(rec, o))
	}
	return sales
}

func restore(rec domain.SaleRecord, o uow.QueryOptions) *domain.Sale {
	if o.IncludeItems {
		rec.Items = slices.Clone(rec.Items)
	} else {
		rec.Items = nil
	}
	return domain.RestoreSale(rec)
}

func inMonth(month time.Month, year int, loc *time.Location) func(domain.SaleRecord) bool {
	start, end := uow.MonthRange(month, year, loc)
	return func(s domain.SaleRecord) bool {
		return !s.SoldAt.Before(start) && s.SoldAt.Before(end)
	}
}
