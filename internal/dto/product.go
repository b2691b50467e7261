package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"newsstand/internal/domain"
)

type ProductDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Barcode     *string         `json:"barcode"`
	CreatedAt   time.Time       `json:"createdAt"`
	Active      bool            `json:"active"`
}

func NewProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price(),
		Stock:       p.Quantity(),
		Barcode:     p.Barcode(),
		CreatedAt:   p.CreatedAt(),
		Active:      p.IsActive(),
	}
}

func NewProductDTOs(products []*domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Barcode     *string         `json:"barcode" validate:"omitempty,max=50"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Barcode     *string         `json:"barcode" validate:"omitempty,max=50"`
}

// StockChangeRequest carries the quantity to add or write off.
type StockChangeRequest struct {
	Quantity int `json:"quantity"`
}
