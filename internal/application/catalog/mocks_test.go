package catalog

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) BrowseProducts(ctx context.Context, q catalog.BrowseQuery) (catalog.SearchPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(catalog.SearchPage), args.Error(1)
}

func (m *MockProvider) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProvider) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockProvider) GetCategories(ctx context.Context, parentID *int64) ([]catalog.Category, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockProvider) GetMoneyLocale(ctx context.Context, userID int64) (valueobject.MoneyLocale, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(valueobject.MoneyLocale), args.Error(1)
}

type MockStockKeeper struct {
	mock.Mock
}

func (m *MockStockKeeper) DecrementStock(ctx context.Context, productID int64, variantID *int64, quantity int) error {
	args := m.Called(ctx, productID, variantID, quantity)
	return args.Error(0)
}
