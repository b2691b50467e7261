// Package memory is an in-process implementation of the unit of work used by
// tests and by the server when no database is configured.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"newsstand/internal/domain"
	"newsstand/internal/uow"
)

var ErrFinished = errors.New("unit of work already finished")

// Store keeps committed state. A write unit of work holds the lock for its
// whole lifetime and works on a copy that replaces the state on commit.
type Store struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	products      map[int64]domain.ProductRecord
	sales         map[int64]domain.SaleRecord
	nextProductID int64
	nextSaleID    int64
	nextItemID    int64
}

func New() *Store {
	return &Store{
		state: state{
			products: make(map[int64]domain.ProductRecord),
			sales:    make(map[int64]domain.SaleRecord),
		},
	}
}

// NewSeeded returns a store holding a small newsstand catalogue for demo mode.
func NewSeeded() *Store {
	s := New()
	seed := []struct {
		name, description, price, barcode string
		quantity                          int
	}{
		{"Jornal Diário", "edição do dia", "5.50", "7891000000017", 40},
		{"Revista Semanal", "notícias e política", "19.90", "7891000000024", 12},
		{"Gibi Turma", "quadrinhos", "8.90", "7891000000031", 25},
		{"Palavras Cruzadas", "nível médio", "11.50", "7891000000048", 4},
		{"Caderno Universitário", "200 folhas", "24.00", "7891000000055", 8},
		{"Bala de Menta", "unidade", "0.25", "", 300},
	}

	for _, p := range seed {
		var code *string
		if p.barcode != "" {
			c := p.barcode
			code = &c
		}
		product, err := domain.NewProduct(p.name, p.description, decimal.RequireFromString(p.price), p.quantity, code)
		if err != nil {
			panic(fmt.Sprintf("invalid seed product %q: %v", p.name, err))
		}
		s.state.nextProductID++
		product.SetID(s.state.nextProductID)
		s.state.products[product.ID()] = product.Record()
	}
	return s
}

var _ uow.Factory = (*Store)(nil)

func (s *Store) Begin(ctx context.Context) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &unitOfWork{store: s, working: s.state.clone()}, nil
}

func (s *Store) BeginReadOnly(ctx context.Context) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	return &unitOfWork{store: s, working: s.state, readOnly: true}, nil
}

type unitOfWork struct {
	store    *Store
	working  state
	readOnly bool
	affected int64
	done     bool
}

func (u *unitOfWork) Products() uow.ProductRepository {
	return &productRepository{u: u}
}

func (u *unitOfWork) Sales() uow.SaleRepository {
	return &saleRepository{u: u}
}

func (u *unitOfWork) Commit() (int64, error) {
	if u.done {
		return 0, ErrFinished
	}
	u.done = true
	if u.readOnly {
		u.store.mu.RUnlock()
		return 0, nil
	}
	u.store.state = u.working
	u.store.mu.Unlock()
	return u.affected, nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if u.readOnly {
		u.store.mu.RUnlock()
		return nil
	}
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) checkWritable() error {
	if u.done {
		return ErrFinished
	}
	if u.readOnly {
		return errors.New("write on a read-only unit of work")
	}
	return nil
}

func (st state) clone() state {
	products := make(map[int64]domain.ProductRecord, len(st.products))
	for id, p := range st.products {
		products[id] = p
	}
	sales := make(map[int64]domain.SaleRecord, len(st.sales))
	for id, s := range st.sales {
		s.Items = slices.Clone(s.Items)
		sales[id] = s
	}
	return state{
		products:      products,
		sales:         sales,
		nextProductID: st.nextProductID,
		nextSaleID:    st.nextSaleID,
		nextItemID:    st.nextItemID,
	}
}
