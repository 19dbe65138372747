package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ProductSource resolves products when a new line is added
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// ShoppingCart holds the ordered lines of one user.
// It is not safe for concurrent use; callers serialize access per user.
type ShoppingCart struct {
	userID int64
	items  []Item
}

// NewShoppingCart creates an empty cart for a user
func NewShoppingCart(userID int64) *ShoppingCart {
	return &ShoppingCart{userID: userID}
}

// Clone returns an independent copy of the cart
func (c *ShoppingCart) Clone() *ShoppingCart {
	return &ShoppingCart{userID: c.userID, items: c.Items()}
}

// UserID returns the owner of the cart
func (c *ShoppingCart) UserID() int64 {
	return c.userID
}

func (c *ShoppingCart) indexOf(key LineKey) int {
	for i := range c.items {
		if c.items[i].Key() == key {
			return i
		}
	}
	return -1
}

// AddProduct adds quantity units of a product (and variant) to the cart.
// An existing line is incremented without consulting the catalog; a new line
// snapshots name, price, discount and variant title from source.
func (c *ShoppingCart) AddProduct(ctx context.Context, source ProductSource, productID int64, variantID *int64, quantity int) (Item, error) {
	if quantity < 1 {
		return Item{}, shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be at least 1")
	}

	if idx := c.indexOf(NewLineKey(productID, variantID)); idx >= 0 {
		c.items[idx].Quantity += quantity
		return c.items[idx].clone(), nil
	}

	product, err := source.GetProduct(ctx, productID)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Discount:  product.Discount,
		Quantity:  quantity,
	}

	switch {
	case product.HasVariants() && variantID == nil:
		return Item{}, shared.NewDomainError(shared.CodeInvalidOperation,
			fmt.Sprintf("Product %d has variants, a variant must be chosen", productID))
	case variantID != nil:
		variant, ok := product.Variant(*variantID)
		if !ok {
			return Item{}, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Variant %d does not exist on product %d", *variantID, productID))
		}
		vid := variant.ID
		item.VariantID = &vid
		item.VariantTitle = variant.Title
	}

	c.items = append(c.items, item)
	return item.clone(), nil
}

// RemoveProduct removes quantity units from a line. It returns the updated
// line, or (nil, nil) when the line was deleted because its quantity did not
// exceed the requested amount. A missing line yields shared.ErrNotFound.
func (c *ShoppingCart) RemoveProduct(productID int64, variantID *int64, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be at least 1")
	}
	idx := c.indexOf(NewLineKey(productID, variantID))
	if idx < 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product %d is not in the cart", productID))
	}
	if c.items[idx].Quantity <= quantity {
		c.deleteAt(idx)
		return nil, nil
	}
	c.items[idx].Quantity -= quantity
	item := c.items[idx].clone()
	return &item, nil
}

// RemoveItem deletes a whole line and reports whether it existed
func (c *ShoppingCart) RemoveItem(productID int64, variantID *int64) bool {
	idx := c.indexOf(NewLineKey(productID, variantID))
	if idx < 0 {
		return false
	}
	c.deleteAt(idx)
	return true
}

func (c *ShoppingCart) deleteAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

// Deduct takes the quantities of items out of the matching lines, as after
// those items were paid for. A line that runs out is deleted; items with no
// matching line are skipped.
func (c *ShoppingCart) Deduct(items []Item) {
	for _, it := range items {
		idx := c.indexOf(NewLineKey(it.ProductID, it.VariantID))
		if idx < 0 {
			continue
		}
		if c.items[idx].Quantity <= it.Quantity {
			c.deleteAt(idx)
			continue
		}
		c.items[idx].Quantity -= it.Quantity
	}
}

// Clear empties the cart
func (c *ShoppingCart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order
func (c *ShoppingCart) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// Item returns the line for a product and variant
func (c *ShoppingCart) Item(productID int64, variantID *int64) (Item, bool) {
	idx := c.indexOf(NewLineKey(productID, variantID))
	if idx < 0 {
		return Item{}, false
	}
	return c.items[idx].clone(), true
}

// NumItems returns the number of distinct lines
func (c *ShoppingCart) NumItems() int {
	return len(c.items)
}

// NumProducts returns the sum of quantities over all lines
func (c *ShoppingCart) NumProducts() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// IsEmpty returns true if the cart has no lines
func (c *ShoppingCart) IsEmpty() bool {
	return len(c.items) == 0
}

// Has reports whether any line holds the product, whatever its variant
func (c *ShoppingCart) Has(productID int64) bool {
	for _, it := range c.items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// CalculateTotal sums the line totals
func (c *ShoppingCart) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Total())
	}
	return total
}

// SummaryText holds the labels used when rendering a summary
type SummaryText struct {
	Header string
	Empty  string
	Total  string
}

// DefaultSummaryText returns the labels of the cart view
func DefaultSummaryText() SummaryText {
	return SummaryText{Header: "Your Cart:", Empty: "Your cart is empty.", Total: "Total"}
}

// Summary renders the cart as text, one row per line followed by the total.
// Every amount goes through the locale formatter.
func (c *ShoppingCart) Summary(locale valueobject.MoneyLocale, text SummaryText) string {
	if c.IsEmpty() {
		return text.Empty
	}

	var b strings.Builder
	b.WriteString(text.Header)
	b.WriteString("\n")
	for _, it := range c.items {
		b.WriteString(SummaryRow(locale, it))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(text.Total)
	b.WriteString(": ")
	b.WriteString(locale.FormatPrice(c.CalculateTotal()))
	return b.String()
}

// SummaryRow renders a single line: "- name (variant) unit xN = total (P% off)"
func SummaryRow(locale valueobject.MoneyLocale, it Item) string {
	row := fmt.Sprintf("- %s %s x%d = %s",
		it.DisplayName(),
		locale.FormatPrice(it.UnitPrice),
		it.Quantity,
		locale.FormatPrice(it.Total()),
	)
	if it.HasDiscount() {
		row += fmt.Sprintf(" (%s%% off)", it.Discount.Mul(decimal.NewFromInt(100)).StringFixed(0))
	}
	return row
}
