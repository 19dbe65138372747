package persistence

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Demo catalog shape
const (
	DemoMinProductsPerCategory = 1
	DemoMaxProductsPerCategory = 5
	DemoMinPrice               = 1
	DemoMaxPrice               = 1000
)

// DemoImages are attached to every demo product
var DemoImages = []string{
	"https://placehold.co/150",
	"https://placehold.co/200",
	"https://placehold.co/250",
}

type demoCategory struct {
	id       int64
	name     string
	parentID *int64
}

func parent(id int64) *int64 { return &id }

var demoCategories = []demoCategory{
	{id: 0, name: "Electronics"},
	{id: 1, name: "Clothing"},
	{id: 2, name: "Books"},
	{id: 3, name: "Home & Kitchen"},
	{id: 4, name: "Laptops", parentID: parent(0)},
	{id: 5, name: "Smartphones", parentID: parent(0)},
	{id: 6, name: "T-shirts", parentID: parent(1)},
	{id: 7, name: "Jeans", parentID: parent(1)},
	{id: 8, name: "Caps", parentID: parent(1)},
	{id: 9, name: "Fiction", parentID: parent(2)},
	{id: 10, name: "Non-fiction", parentID: parent(2)},
}

// DemoCatalogData generates the demo categories and products. Every category
// receives between one and five products named "Product N" with a random
// price in [1, 1000] rounded to one decimal. Product ids are dense and start
// at zero, in category order.
func DemoCatalogData(rng *rand.Rand, stock int) ([]catalog.Category, []*catalog.Product) {
	categories := make([]catalog.Category, 0, len(demoCategories))
	for i, dc := range demoCategories {
		cat := catalog.Category{ID: dc.id, Name: dc.name, ParentID: dc.parentID, SortOrder: i}
		for _, child := range demoCategories {
			if child.parentID != nil && *child.parentID == dc.id {
				cat.SubcategoryIDs = append(cat.SubcategoryIDs, child.id)
			}
		}
		categories = append(categories, cat)
	}

	var products []*catalog.Product
	for _, cat := range categories {
		n := DemoMinProductsPerCategory + rng.IntN(DemoMaxProductsPerCategory-DemoMinProductsPerCategory+1)
		for range n {
			id := int64(len(products))
			price := decimal.NewFromFloat(DemoMinPrice + rng.Float64()*(DemoMaxPrice-DemoMinPrice)).Round(1)
			products = append(products, &catalog.Product{
				ID:          id,
				Name:        fmt.Sprintf("Product %d", id),
				Description: fmt.Sprintf("This is product %d.", id),
				CategoryID:  cat.ID,
				Price:       price,
				Stock:       stock,
				Discount:    decimal.Zero,
				Images:      append([]string(nil), DemoImages...),
				SortOrder:   int(id),
			})
		}
	}
	return categories, products
}

// NewDemoCatalog returns an in-memory catalog filled with demo data
func NewDemoCatalog(rng *rand.Rand, stock int, locale valueobject.MoneyLocale) (*MemoryCatalog, error) {
	c := NewMemoryCatalog(locale)
	categories, products := DemoCatalogData(rng, stock)
	if err := c.Load(categories, products); err != nil {
		return nil, fmt.Errorf("failed to load demo catalog: %w", err)
	}
	return c, nil
}
