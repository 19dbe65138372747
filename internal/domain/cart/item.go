package cart

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// LineKey identifies a cart line: one product, optionally one variant
type LineKey struct {
	ProductID  int64
	VariantID  int64
	HasVariant bool
}

// NewLineKey builds the key for a product and optional variant
func NewLineKey(productID int64, variantID *int64) LineKey {
	if variantID == nil {
		return LineKey{ProductID: productID}
	}
	return LineKey{ProductID: productID, VariantID: *variantID, HasVariant: true}
}

// Item is one line in a cart. Name, price and discount are captured when the
// product enters the cart and are not re-read from the catalog afterwards.
type Item struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	Quantity     int             `json:"quantity"`
	VariantID    *int64          `json:"variant_id,omitempty"`
	VariantTitle string          `json:"variant_title,omitempty"`
}

// Key returns the line identity of the item
func (i Item) Key() LineKey {
	return NewLineKey(i.ProductID, i.VariantID)
}

// HasDiscount returns true if a discount was captured with the item
func (i Item) HasDiscount() bool {
	return !i.Discount.IsZero()
}

// Total returns quantity x unit price x (1 - discount)
func (i Item) Total() decimal.Decimal {
	return valueobject.LineTotal(i.UnitPrice, i.Quantity, i.Discount)
}

// DisplayName returns the name with the variant title, if any
func (i Item) DisplayName() string {
	if i.VariantTitle == "" {
		return i.Name
	}
	return i.Name + " (" + i.VariantTitle + ")"
}

func (i Item) clone() Item {
	if i.VariantID != nil {
		v := *i.VariantID
		i.VariantID = &v
	}
	return i
}
