package domain

import (
	"github.com/shopspring/decimal"

	apperrors "newsstand/internal/errors"
)

// SaleItem is one line of a sale. Product name and unit price are copied at
// sale time so later product edits leave history untouched.
type SaleItem struct {
	id          int64
	saleID      int64
	productID   int64
	productName string
	unitPrice   decimal.Decimal
	quantity    int
	lineTotal   decimal.Decimal
}

type SaleItemRecord struct {
	ID          int64
	SaleID      int64
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

func newSaleItem(saleID int64, product *Product, quantity int) SaleItem {
	return SaleItem{
		saleID:      saleID,
		productID:   product.ID(),
		productName: product.Name(),
		unitPrice:   product.Price(),
		quantity:    quantity,
		lineTotal:   product.Price().Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func restoreSaleItem(r SaleItemRecord) SaleItem {
	return SaleItem{
		id:          r.ID,
		saleID:      r.SaleID,
		productID:   r.ProductID,
		productName: r.ProductName,
		unitPrice:   r.UnitPrice,
		quantity:    r.Quantity,
		lineTotal:   r.LineTotal,
	}
}

func (i SaleItem) Record() SaleItemRecord {
	return SaleItemRecord{
		ID:          i.id,
		SaleID:      i.saleID,
		ProductID:   i.productID,
		ProductName: i.productName,
		UnitPrice:   i.unitPrice,
		Quantity:    i.quantity,
		LineTotal:   i.lineTotal,
	}
}

func (i SaleItem) ID() int64 {
	return i.id
}

func (i SaleItem) SaleID() int64 {
	return i.saleID
}

func (i SaleItem) ProductID() int64 {
	return i.productID
}

func (i SaleItem) ProductName() string {
	return i.productName
}

func (i SaleItem) UnitPrice() decimal.Decimal {
	return i.unitPrice
}

func (i SaleItem) Quantity() int {
	return i.quantity
}

func (i SaleItem) LineTotal() decimal.Decimal {
	return i.lineTotal
}

// UpdateQuantity leaves the item unchanged when quantity is not positive.
func (i *SaleItem) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return apperrors.FieldError("quantity", "quantity must be greater than zero")
	}
	i.quantity = quantity
	i.lineTotal = i.unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return nil
}
