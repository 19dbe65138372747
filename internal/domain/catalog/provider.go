package catalog

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Provider is the catalog backend consulted by the cart and the storefront.
// Lookups by id return shared.ErrNotFound for unknown ids; browsing never
// fails on an empty result and returns an empty page instead.
type Provider interface {
	// BrowseProducts filters by category first, then by text, then paginates.
	// Results keep a stable order for a fixed catalog state.
	BrowseProducts(ctx context.Context, q BrowseQuery) (SearchPage, error)

	// GetProduct returns the product with the given id
	GetProduct(ctx context.Context, id int64) (*Product, error)

	// GetCategory returns the category with the given id
	GetCategory(ctx context.Context, id int64) (*Category, error)

	// GetCategories returns top-level categories when parentID is nil,
	// otherwise the direct children of parentID
	GetCategories(ctx context.Context, parentID *int64) ([]Category, error)

	// GetMoneyLocale returns the price formatting profile for a user
	GetMoneyLocale(ctx context.Context, userID int64) (valueobject.MoneyLocale, error)
}

// StockKeeper mutates product stock. Implementations serialize writes per product.
type StockKeeper interface {
	DecrementStock(ctx context.Context, productID int64, variantID *int64, quantity int) error
}

// UnimplementedProvider can be embedded by partial backends; every
// operation fails with shared.ErrNotImplemented.
type UnimplementedProvider struct{}

func (UnimplementedProvider) BrowseProducts(context.Context, BrowseQuery) (SearchPage, error) {
	return SearchPage{}, shared.ErrNotImplemented
}

func (UnimplementedProvider) GetProduct(context.Context, int64) (*Product, error) {
	return nil, shared.ErrNotImplemented
}

func (UnimplementedProvider) GetCategory(context.Context, int64) (*Category, error) {
	return nil, shared.ErrNotImplemented
}

func (UnimplementedProvider) GetCategories(context.Context, *int64) ([]Category, error) {
	return nil, shared.ErrNotImplemented
}

func (UnimplementedProvider) GetMoneyLocale(context.Context, int64) (valueobject.MoneyLocale, error) {
	return valueobject.MoneyLocale{}, shared.ErrNotImplemented
}

var _ Provider = UnimplementedProvider{}
