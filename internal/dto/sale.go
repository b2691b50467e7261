package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"newsstand/internal/domain"
)

type SaleDTO struct {
	ID     int64           `json:"id"`
	SoldAt time.Time       `json:"soldAt"`
	Total  decimal.Decimal `json:"total"`
	Note   *string         `json:"note"`
	Items  []SaleItemDTO   `json:"items"`
}

type SaleItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// NewSaleDTO maps a sale; Items is empty, never nil, when the sale was
// loaded without its items.
func NewSaleDTO(s *domain.Sale) SaleDTO {
	items := s.Items()
	out := SaleDTO{
		ID:     s.ID(),
		SoldAt: s.SoldAt(),
		Total:  s.Total(),
		Note:   s.Note(),
		Items:  make([]SaleItemDTO, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, SaleItemDTO{
			ID:          it.ID(),
			ProductID:   it.ProductID(),
			ProductName: it.ProductName(),
			UnitPrice:   it.UnitPrice(),
			Quantity:    it.Quantity(),
			LineTotal:   it.LineTotal(),
		})
	}
	return out
}

func NewSaleDTOs(sales []*domain.Sale) []SaleDTO {
	out := make([]SaleDTO, 0, len(sales))
	for _, s := range sales {
		out = append(out, NewSaleDTO(s))
	}
	return out
}

type SaleLine struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type CreateSaleRequest struct {
	Items []SaleLine `json:"items" validate:"required,min=1,max=100,dive"`
	Note  *string    `json:"note" validate:"omitempty,max=500"`
}

type UpdateSaleNoteRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}
