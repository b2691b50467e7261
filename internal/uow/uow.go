// Package uow defines the persistence contract the services depend on: the
// product and sale repositories and the unit of work that scopes them to
// one transaction.
package uow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"newsstand/internal/domain"
)

// ProductRepository finders return (nil, nil) when no product matches.
// Writes return NotFoundError when the id does not resolve.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindAll(ctx context.Context) ([]*domain.Product, error)
	FindActive(ctx context.Context) ([]*domain.Product, error)
	SearchByName(ctx context.Context, query string) ([]*domain.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	FindLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
	CountInStock(ctx context.Context) (int, error)
	Add(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Remove(ctx context.Context, id int64) error
}

// SaleRepository loads sales without items unless WithItems is passed.
type SaleRepository interface {
	FindByID(ctx context.Context, id int64, opts ...QueryOption) (*domain.Sale, error)
	FindAll(ctx context.Context, opts ...QueryOption) ([]*domain.Sale, error)
	FindByPeriod(ctx context.Context, from, to time.Time, opts ...QueryOption) ([]*domain.Sale, error)
	FindByMonth(ctx context.Context, month time.Month, year int, loc *time.Location, opts ...QueryOption) ([]*domain.Sale, error)
	CountByMonth(ctx context.Context, month time.Month, year int, loc *time.Location) (int, error)
	TotalByMonth(ctx context.Context, month time.Month, year int, loc *time.Location) (decimal.Decimal, error)
	Add(ctx context.Context, sale *domain.Sale) error
	Update(ctx context.Context, sale *domain.Sale) error
	Remove(ctx context.Context, id int64) error
}

// UnitOfWork groups repository writes into one atomic commit. Rollback is
// safe to call after Commit and more than once, so callers defer it.
type UnitOfWork interface {
	Products() ProductRepository
	Sales() SaleRepository
	Commit() (int64, error)
	Rollback() error
}

type Factory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	BeginReadOnly(ctx context.Context) (UnitOfWork, error)
}

type QueryOptions struct {
	IncludeItems bool
}

type QueryOption func(*QueryOptions)

func WithItems() QueryOption {
	return func(o *QueryOptions) {
		o.IncludeItems = true
	}
}

func ApplyOptions(opts ...QueryOption) QueryOptions {
	var o QueryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MonthRange returns the half-open interval [start, end) of the calendar
// month in loc.
func MonthRange(month time.Month, year int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
