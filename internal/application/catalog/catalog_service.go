package catalog

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
)

// CatalogService exposes read-only catalog queries to the HTTP layer
type CatalogService struct {
	provider catalog.Provider
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(provider catalog.Provider) *CatalogService {
	return &CatalogService{provider: provider}
}

// Browse returns one page of matching products
func (s *CatalogService) Browse(ctx context.Context, req BrowseRequest) (*ProductPageResponse, error) {
	page, err := s.provider.BrowseProducts(ctx, req.ToQuery())
	if err != nil {
		return nil, err
	}
	locale, err := s.provider.GetMoneyLocale(ctx, 0)
	if err != nil {
		return nil, err
	}

	products := make([]ProductResponse, 0, len(page.Products))
	for i := range page.Products {
		products = append(products, ToProductResponse(&page.Products[i], locale))
	}
	return &ProductPageResponse{
		Products:    products,
		Page:        page.PageNum,
		PageSize:    page.PageSize,
		Total:       page.Total,
		NumPages:    page.NumPages(),
		HasNext:     page.HasNext(),
		HasPrevious: page.HasPrevious(),
	}, nil
}

// GetProduct returns a product by id
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.provider.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	locale, err := s.provider.GetMoneyLocale(ctx, 0)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, locale)
	return &resp, nil
}

// ListCategories returns top-level categories, or the children of parentID
func (s *CatalogService) ListCategories(ctx context.Context, parentID *int64) ([]CategoryResponse, error) {
	if parentID != nil {
		if _, err := s.provider.GetCategory(ctx, *parentID); err != nil {
			return nil, err
		}
	}
	categories, err := s.provider.GetCategories(ctx, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, ToCategoryResponse(c))
	}
	return out, nil
}
