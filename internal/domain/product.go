package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "newsstand/internal/errors"
)

const (
	MaxProductNameLength = 200
	MaxDescriptionLength = 500
	MaxBarcodeLength     = 50
)

// Product is a catalogue entry of the newsstand. Fields are only changed
// through its methods so name and price stay valid.
type Product struct {
	id          int64
	name        string
	description string
	price       decimal.Decimal
	quantity    int
	barcode     *string
	createdAt   time.Time
	active      bool
}

// ProductRecord is the persistence shape of a Product.
type ProductRecord struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Barcode     *string
	CreatedAt   time.Time
	Active      bool
}

func NewProduct(name, description string, price decimal.Decimal, quantity int, barcode *string) (*Product, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, apperrors.FieldError("quantity", "initial quantity must not be negative")
	}
	code, err := normalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	return &Product{
		name:        name,
		description: description,
		price:       price,
		quantity:    quantity,
		barcode:     code,
		createdAt:   time.Now(),
		active:      true,
	}, nil
}

// RestoreProduct rebuilds a stored product without business validation.
// Only store adapters call it.
func RestoreProduct(r ProductRecord) *Product {
	return &Product{
		id:          r.ID,
		name:        r.Name,
		description: r.Description,
		price:       r.Price,
		quantity:    r.Quantity,
		barcode:     copyString(r.Barcode),
		createdAt:   r.CreatedAt,
		active:      r.Active,
	}
}

func (p *Product) Record() ProductRecord {
	return ProductRecord{
		ID:          p.id,
		Name:        p.name,
		Description: p.description,
		Price:       p.price,
		Quantity:    p.quantity,
		Barcode:     copyString(p.barcode),
		CreatedAt:   p.createdAt,
		Active:      p.active,
	}
}

func (p *Product) ID() int64 {
	return p.id
}

func (p *Product) Name() string {
	return p.name
}

func (p *Product) Description() string {
	return p.description
}

func (p *Product) Price() decimal.Decimal {
	return p.price
}

func (p *Product) Quantity() int {
	return p.quantity
}

func (p *Product) Barcode() *string {
	return copyString(p.barcode)
}

func (p *Product) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Product) IsActive() bool {
	return p.active
}

// SetID is called by store adapters once the row has been inserted.
func (p *Product) SetID(id int64) {
	p.id = id
}

// Update replaces the descriptive fields. Barcode uniqueness is checked by
// the caller.
func (p *Product) Update(name, description string, price decimal.Decimal, barcode *string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	code, err := normalizeBarcode(barcode)
	if err != nil {
		return err
	}

	p.name = name
	p.description = description
	p.price = price
	p.barcode = code
	return nil
}

func (p *Product) AddStock(quantity int) error {
	if quantity <= 0 {
		return apperrors.FieldError("quantity", "quantity must be greater than zero")
	}
	p.quantity += quantity
	return nil
}

// RemoveStock may leave the quantity negative: goods sold before restock.
func (p *Product) RemoveStock(quantity int) error {
	if quantity <= 0 {
		return apperrors.FieldError("quantity", "quantity must be greater than zero")
	}
	p.quantity -= quantity
	return nil
}

func (p *Product) Activate() {
	p.active = true
}

func (p *Product) Deactivate() {
	p.active = false
}

func (p *Product) IsInStock() bool {
	return p.active && p.quantity > 0
}

func (p *Product) IsLowStock(threshold int) bool {
	return p.active && p.quantity <= threshold
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.FieldError("name", "product name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxProductNameLength {
		return apperrors.FieldError("name", "product name must not exceed 200 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return apperrors.FieldError("description", "description must not exceed 500 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.FieldError("price", "price must not be negative")
	}
	return nil
}

// normalizeBarcode maps a blank barcode to no barcode.
func normalizeBarcode(barcode *string) (*string, error) {
	if barcode == nil {
		return nil, nil
	}
	code := strings.TrimSpace(*barcode)
	if code == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(code) > MaxBarcodeLength {
		return nil, apperrors.FieldError("barcode", "barcode must not exceed 50 characters")
	}
	return &code, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
