package persistence

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

func i64(v int64) *int64 { return &v }

// fixtureCatalog returns two top-level categories, one subcategory and four products.
// Product 3 carries variants; product 4 has no description.
func fixtureCatalog() ([]catalog.Category, []*catalog.Product) {
	categories := []catalog.Category{
		{ID: 1, Name: "Electronics", SortOrder: 0},
		{ID: 2, Name: "Clothing", SortOrder: 1},
		{ID: 3, Name: "Phones", ParentID: i64(1), SortOrder: 2},
	}
	products := []*catalog.Product{
		{ID: 1, Name: "Laptop", Description: "A fast laptop", CategoryID: 1, Price: decimal.NewFromInt(999), Stock: 3, SortOrder: 0},
		{ID: 2, Name: "Headphones", Description: "Noise cancelling 100%", CategoryID: 1, Price: decimal.RequireFromString("49.9"), Stock: 10, SortOrder: 1},
		{
			ID: 3, Name: "T-shirt", Description: "Cotton shirt", CategoryID: 2,
			Price: decimal.NewFromInt(15), Discount: decimal.RequireFromString("0.2"), SortOrder: 2,
			Variants: []catalog.ProductVariant{
				{ID: 1, Title: "S", Stock: 2},
				{ID: 2, Title: "M", Stock: 0},
			},
		},
		{ID: 4, Name: "Phone case", CategoryID: 3, Price: decimal.NewFromInt(5), Stock: 1, SortOrder: 3, Images: []string{"a.png", "b.png"}},
	}
	return categories, products
}
