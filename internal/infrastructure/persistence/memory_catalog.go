package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// MemoryCatalog is a catalog provider backed by process memory.
// Reads return deep copies; stock writes take the write lock, which
// serializes every mutation of a product.
type MemoryCatalog struct {
	mu         sync.RWMutex
	categories []*catalog.Category
	categoryBy map[int64]*catalog.Category
	products   []*catalog.Product
	productBy  map[int64]*catalog.Product
	locale     valueobject.MoneyLocale
}

// NewMemoryCatalog creates an empty catalog rendering prices with locale
func NewMemoryCatalog(locale valueobject.MoneyLocale) *MemoryCatalog {
	return &MemoryCatalog{
		categoryBy: make(map[int64]*catalog.Category),
		productBy:  make(map[int64]*catalog.Product),
		locale:     locale,
	}
}

// Load adds categories and products. Parents must precede their children
// and every product must reference a known category.
func (c *MemoryCatalog) Load(categories []catalog.Category, products []*catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range categories {
		cat := categories[i]
		if _, dup := c.categoryBy[cat.ID]; dup {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Category %d is declared twice", cat.ID))
		}
		if cat.ParentID != nil {
			parent, ok := c.categoryBy[*cat.ParentID]
			if !ok {
				return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Category %d references unknown parent %d", cat.ID, *cat.ParentID))
			}
			if !containsID(parent.SubcategoryIDs, cat.ID) {
				parent.SubcategoryIDs = append(parent.SubcategoryIDs, cat.ID)
			}
		}
		cat.SubcategoryIDs = append([]int64(nil), cat.SubcategoryIDs...)
		c.categories = append(c.categories, &cat)
		c.categoryBy[cat.ID] = &cat
	}

	for _, p := range products {
		if _, dup := c.productBy[p.ID]; dup {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Product %d is declared twice", p.ID))
		}
		if _, ok := c.categoryBy[p.CategoryID]; !ok {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Product %d references unknown category %d", p.ID, p.CategoryID))
		}
		if err := p.Validate(); err != nil {
			return err
		}
		clone := p.Clone()
		c.products = append(c.products, clone)
		c.productBy[clone.ID] = clone
	}

	sort.SliceStable(c.products, func(i, j int) bool {
		return c.products[i].SortOrder < c.products[j].SortOrder
	})
	return nil
}

// BrowseProducts filters by category, then by text, then paginates
func (c *MemoryCatalog) BrowseProducts(_ context.Context, q catalog.BrowseQuery) (catalog.SearchPage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]catalog.Product, 0)
	for _, p := range c.products {
		if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
			continue
		}
		if q.Query != "" && !p.MatchesQuery(q.Query) {
			continue
		}
		matches = append(matches, *p.Clone())
	}
	return catalog.Paginate(matches, q), nil
}

// GetProduct returns a copy of the product with the given id
func (c *MemoryCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.productBy[id]
	if !ok {
		return nil, productNotFound(id)
	}
	return p.Clone(), nil
}

// GetCategory returns a copy of the category with the given id
func (c *MemoryCatalog) GetCategory(_ context.Context, id int64) (*catalog.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cat, ok := c.categoryBy[id]
	if !ok {
		return nil, categoryNotFound(id)
	}
	out := copyCategory(cat)
	return &out, nil
}

// GetCategories returns top-level categories, or the direct children of parentID
func (c *MemoryCatalog) GetCategories(_ context.Context, parentID *int64) ([]catalog.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]catalog.Category, 0)
	for _, cat := range c.categories {
		switch {
		case parentID == nil && cat.ParentID == nil:
		case parentID != nil && cat.ParentID != nil && *cat.ParentID == *parentID:
		default:
			continue
		}
		out = append(out, copyCategory(cat))
	}
	return out, nil
}

// GetMoneyLocale returns the same locale for every user
func (c *MemoryCatalog) GetMoneyLocale(context.Context, int64) (valueobject.MoneyLocale, error) {
	return c.locale, nil
}

// DecrementStock removes quantity units from a product or one of its variants
func (c *MemoryCatalog) DecrementStock(_ context.Context, productID int64, variantID *int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.productBy[productID]
	if !ok {
		return productNotFound(productID)
	}
	return p.DecrementStock(variantID, quantity)
}

// Len returns the number of products
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func copyCategory(c *catalog.Category) catalog.Category {
	out := *c
	out.SubcategoryIDs = append([]int64(nil), c.SubcategoryIDs...)
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func productNotFound(id int64) error {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product %d not found", id))
}

func categoryNotFound(id int64) error {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Category %d not found", id))
}

var (
	_ catalog.Provider    = (*MemoryCatalog)(nil)
	_ catalog.StockKeeper = (*MemoryCatalog)(nil)
)
