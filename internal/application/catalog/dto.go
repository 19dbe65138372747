package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// BrowseRequest represents a product listing request
type BrowseRequest struct {
	Query      string `form:"q" binding:"max=200"`
	CategoryID *int64 `form:"category_id" binding:"omitempty,gte=0"`
	Page       int    `form:"page" binding:"omitempty,gte=1"`
	PageSize   *int   `form:"page_size" binding:"omitempty,gte=0,lte=100"`
}

// ToQuery converts the request into a domain query with defaults applied
func (r BrowseRequest) ToQuery() catalog.BrowseQuery {
	q := catalog.NewBrowseQuery().WithText(r.Query)
	if r.CategoryID != nil {
		q = q.InCategory(*r.CategoryID)
	}
	if r.Page > 0 {
		q = q.Page(r.Page)
	}
	if r.PageSize != nil {
		q.PageSize = *r.PageSize
	}
	return q
}

// VariantResponse represents a product variant in API responses
type VariantResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Stock    int    `json:"stock"`
	HasStock bool   `json:"has_stock"`
	Image    string `json:"image,omitempty"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	CategoryID      int64             `json:"category_id"`
	Price           decimal.Decimal   `json:"price"`
	Discount        decimal.Decimal   `json:"discount"`
	DiscountedPrice decimal.Decimal   `json:"discounted_price"`
	FormattedPrice  string            `json:"formatted_price"`
	Stock           int               `json:"stock"`
	HasStock        bool              `json:"has_stock"`
	IsDigital       bool              `json:"is_digital"`
	Images          []string          `json:"images,omitempty"`
	Variants        []VariantResponse `json:"variants,omitempty"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ParentID       *int64  `json:"parent_id,omitempty"`
	SubcategoryIDs []int64 `json:"subcategory_ids,omitempty"`
}

// ProductPageResponse is one page of a product listing
type ProductPageResponse struct {
	Products    []ProductResponse `json:"products"`
	Page        int               `json:"page"`
	PageSize    int               `json:"page_size"`
	Total       int               `json:"total"`
	NumPages    int               `json:"num_pages"`
	HasNext     bool              `json:"has_next"`
	HasPrevious bool              `json:"has_previous"`
}

// ToProductResponse converts a domain product, formatting its price for the locale
func ToProductResponse(p *catalog.Product, locale valueobject.MoneyLocale) ProductResponse {
	resp := ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		CategoryID:      p.CategoryID,
		Price:           p.Price,
		Discount:        p.Discount,
		DiscountedPrice: p.DiscountedPrice(),
		FormattedPrice:  locale.FormatPrice(p.DiscountedPrice()),
		Stock:           p.Stock,
		HasStock:        p.HasStock(),
		IsDigital:       p.IsDigital,
		Images:          p.Images,
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, VariantResponse{
			ID:       v.ID,
			Title:    v.Title,
			Stock:    v.Stock,
			HasStock: v.HasStock(),
			Image:    v.Image,
		})
	}
	return resp
}

// ToCategoryResponse converts a domain category
func ToCategoryResponse(c catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:             c.ID,
		Name:           c.Name,
		ParentID:       c.ParentID,
		SubcategoryIDs: c.SubcategoryIDs,
	}
}
