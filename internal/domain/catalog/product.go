package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductVariant is a purchasable option of a product (size, color, ...).
// Its ID is unique within the owning product only.
type ProductVariant struct {
	ProductID int64  `json:"-"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Stock     int    `json:"stock"`
	Image     string `json:"image,omitempty"`
}

// HasStock returns true if the variant can still be sold
func (v ProductVariant) HasStock() bool {
	return v.Stock > 0
}

// Product represents a sellable catalog entry
type Product struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	CategoryID  int64            `json:"category_id"`
	Price       decimal.Decimal  `json:"price"`
	Stock       int              `json:"stock"`
	Discount    decimal.Decimal  `json:"discount"` // fraction in [0,1), zero means none
	Variants    []ProductVariant `json:"variants,omitempty"`
	Images      []string         `json:"images,omitempty"`
	IsDigital   bool             `json:"is_digital"`
	SortOrder   int              `json:"-"`
}

// NewProduct creates a validated product without variants
func NewProduct(id int64, name string, categoryID int64, price decimal.Decimal, stock int) (*Product, error) {
	p := &Product{
		ID:         id,
		Name:       strings.TrimSpace(name),
		CategoryID: categoryID,
		Price:      price,
		Stock:      stock,
		Discount:   decimal.Zero,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the product invariants
func (p *Product) Validate() error {
	if err := validateProductName(p.Name); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if p.Stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Product stock cannot be negative")
	}
	if err := validateDiscount(p.Discount); err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if _, dup := seen[v.ID]; dup {
			return shared.NewDomainError("DUPLICATE_VARIANT", fmt.Sprintf("Variant %d is declared twice on product %d", v.ID, p.ID))
		}
		seen[v.ID] = struct{}{}
		if v.Stock < 0 {
			return shared.NewDomainError("INVALID_STOCK", "Variant stock cannot be negative")
		}
		if strings.TrimSpace(v.Title) == "" {
			return shared.NewDomainError("INVALID_VARIANT", "Variant title cannot be empty")
		}
	}
	return nil
}

// SetDiscount sets the discount fraction; zero removes the discount
func (p *Product) SetDiscount(discount decimal.Decimal) error {
	if err := validateDiscount(discount); err != nil {
		return err
	}
	p.Discount = discount
	return nil
}

// AddVariant attaches a variant to the product
func (p *Product) AddVariant(v ProductVariant) error {
	if _, ok := p.Variant(v.ID); ok {
		return shared.NewDomainError("DUPLICATE_VARIANT", fmt.Sprintf("Variant %d already exists", v.ID))
	}
	if v.Stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Variant stock cannot be negative")
	}
	v.ProductID = p.ID
	p.Variants = append(p.Variants, v)
	return nil
}

// HasVariants returns true if the product must be bought through a variant
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// HasDiscount returns true if a non-zero discount is set
func (p *Product) HasDiscount() bool {
	return !p.Discount.IsZero()
}

// HasStock reports availability. With variants, the product-level stock is
// informational and availability is the OR of the variant stocks.
func (p *Product) HasStock() bool {
	if p.HasVariants() {
		for _, v := range p.Variants {
			if v.HasStock() {
				return true
			}
		}
		return false
	}
	return p.Stock > 0
}

// Variant returns the variant with the given id
func (p *Product) Variant(id int64) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// DiscountedPrice returns the unit price after discount
func (p *Product) DiscountedPrice() decimal.Decimal {
	if !p.HasDiscount() {
		return p.Price
	}
	return p.Price.Mul(decimal.NewFromInt(1).Sub(p.Discount))
}

// DecrementStock removes quantity units from the product or one of its variants.
// Stock never goes below zero; the shortfall is reported as ErrInsufficientStock.
func (p *Product) DecrementStock(variantID *int64, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be positive")
	}
	if variantID != nil {
		for i := range p.Variants {
			if p.Variants[i].ID != *variantID {
				continue
			}
			return decrement(&p.Variants[i].Stock, quantity)
		}
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Variant %d not found on product %d", *variantID, p.ID))
	}
	return decrement(&p.Stock, quantity)
}

func decrement(stock *int, quantity int) error {
	if *stock < quantity {
		*stock = 0
		return shared.ErrInsufficientStock
	}
	*stock -= quantity
	return nil
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (p *Product) Clone() *Product {
	c := *p
	if p.Variants != nil {
		c.Variants = append([]ProductVariant(nil), p.Variants...)
	}
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	return &c
}

// MatchesQuery reports a case-insensitive substring match on name or description.
// An empty description never matches.
func (p *Product) MatchesQuery(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	return p.Description != "" && strings.Contains(strings.ToLower(p.Description), q)
}

func validateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount must be a fraction in [0, 1)")
	}
	return nil
}
