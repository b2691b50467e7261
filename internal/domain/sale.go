package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "newsstand/internal/errors"
)

const MaxNoteLength = 500

// Sale is the aggregate root of a transaction at the counter. It owns its
// items; total always equals the sum of the item line totals.
type Sale struct {
	id     int64
	soldAt time.Time
	total  decimal.Decimal
	note   *string
	items  []SaleItem
}

type SaleRecord struct {
	ID     int64
	SoldAt time.Time
	Total  decimal.Decimal
	Note   *string
	Items  []SaleItemRecord
}

func NewSale(note *string, soldAt time.Time) (*Sale, error) {
	n, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}
	return &Sale{
		soldAt: soldAt,
		total:  decimal.Zero,
		note:   n,
	}, nil
}

// RestoreSale rebuilds a stored sale. The stored total is kept as is so a
// sale loaded without its items still reports it.
func RestoreSale(r SaleRecord) *Sale {
	items := make([]SaleItem, 0, len(r.Items))
	for _, ir := range r.Items {
		items = append(items, restoreSaleItem(ir))
	}
	return &Sale{
		id:     r.ID,
		soldAt: r.SoldAt,
		total:  r.Total,
		note:   copyString(r.Note),
		items:  items,
	}
}

func (s *Sale) Record() SaleRecord {
	items := make([]SaleItemRecord, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item.Record())
	}
	return SaleRecord{
		ID:     s.id,
		SoldAt: s.soldAt,
		Total:  s.total,
		Note:   copyString(s.note),
		Items:  items,
	}
}

func (s *Sale) ID() int64 {
	return s.id
}

func (s *Sale) SoldAt() time.Time {
	return s.soldAt
}

func (s *Sale) Total() decimal.Decimal {
	return s.total
}

func (s *Sale) Note() *string {
	return copyString(s.note)
}

// Items returns a copy of the ordered items. Changing the copy does not
// touch the sale.
func (s *Sale) Items() []SaleItem {
	return slices.Clone(s.items)
}

func (s *Sale) ItemCount() int {
	return len(s.items)
}

// SetID is called by store adapters after the sale row is inserted; the
// items follow their owner.
func (s *Sale) SetID(id int64) {
	s.id = id
	for i := range s.items {
		s.items[i].saleID = id
	}
}

// SetItemID is called by store adapters after an item row is inserted.
func (s *Sale) SetItemID(index int, id int64) {
	s.items[index].id = id
}

func (s *Sale) AddItem(product *Product, quantity int) error {
	if product == nil {
		return apperrors.FieldError("product", "product is required")
	}
	if quantity <= 0 {
		return apperrors.FieldError("quantity", "quantity must be greater than zero")
	}

	s.items = append(s.items, newSaleItem(s.id, product, quantity))
	s.recalculateTotal()
	return nil
}

func (s *Sale) RemoveItem(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.items = slices.Delete(s.items, index, index+1)
	s.recalculateTotal()
	return nil
}

func (s *Sale) UpdateItemQuantity(index int, quantity int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if err := s.items[index].UpdateQuantity(quantity); err != nil {
		return err
	}
	s.recalculateTotal()
	return nil
}

func (s *Sale) UpdateNote(note *string) error {
	n, err := normalizeNote(note)
	if err != nil {
		return err
	}
	s.note = n
	return nil
}

// CanBeFinalized reports whether the sale has something to charge for.
func (s *Sale) CanBeFinalized() bool {
	return len(s.items) > 0 && s.total.IsPositive()
}

func (s *Sale) recalculateTotal() {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.lineTotal)
	}
	s.total = total
}

func (s *Sale) checkIndex(index int) error {
	if index < 0 || index >= len(s.items) {
		return apperrors.FieldError("item", fmt.Sprintf("sale has no item at position %d", index))
	}
	return nil
}

func normalizeNote(note *string) (*string, error) {
	if note == nil || strings.TrimSpace(*note) == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(*note) > MaxNoteLength {
		return nil, apperrors.FieldError("note", "note must not exceed 500 characters")
	}
	return copyString(note), nil
}
