package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Browse(t *testing.T) {
	ctx := context.Background()
	provider := new(MockProvider)
	svc := NewCatalogService(provider)

	products := []catalog.Product{
		{ID: 1, Name: "Tee", Price: decimal.NewFromInt(10), Discount: decimal.RequireFromString("0.5"), Stock: 2},
		{ID: 2, Name: "Cap", Price: decimal.NewFromInt(4)},
	}
	size := 2
	req := BrowseRequest{Query: "t", Page: 1, PageSize: &size}
	provider.On("BrowseProducts", ctx, req.ToQuery()).
		Return(catalog.SearchPage{Products: products, PageNum: 1, PageSize: 2, Total: 3}, nil)
	provider.On("GetMoneyLocale", ctx, int64(0)).Return(valueobject.DefaultMoneyLocale(), nil)

	resp, err := svc.Browse(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "$5.00", resp.Products[0].FormattedPrice)
	assert.True(t, resp.Products[0].HasStock)
	assert.False(t, resp.Products[1].HasStock)
	assert.Equal(t, 2, resp.NumPages)
	assert.True(t, resp.HasNext)
	assert.False(t, resp.HasPrevious)
	provider.AssertExpectations(t)
}

func TestBrowseRequest_ToQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q := BrowseRequest{}.ToQuery()
		assert.Equal(t, catalog.DefaultPageNum, q.PageNum)
		assert.Equal(t, catalog.DefaultPageSize, q.PageSize)
		assert.Nil(t, q.CategoryID)
	})

	t.Run("explicit zero page size disables pagination", func(t *testing.T) {
		zero := 0
		cat := int64(3)
		q := BrowseRequest{PageSize: &zero, CategoryID: &cat, Page: 2}.ToQuery()
		assert.Equal(t, 0, q.PageSize)
		assert.Equal(t, 2, q.PageNum)
		assert.Equal(t, int64(3), *q.CategoryID)
	})
}

func TestCatalogService_GetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		provider := new(MockProvider)
		p := &catalog.Product{ID: 5, Name: "Shirt", Price: decimal.NewFromInt(20),
			Variants: []catalog.ProductVariant{{ID: 1, Title: "S", Stock: 1}}}
		provider.On("GetProduct", ctx, int64(5)).Return(p, nil)
		provider.On("GetMoneyLocale", ctx, int64(0)).Return(valueobject.DefaultMoneyLocale(), nil)

		resp, err := NewCatalogService(provider).GetProduct(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "$20.00", resp.FormattedPrice)
		require.Len(t, resp.Variants, 1)
		assert.True(t, resp.Variants[0].HasStock)
	})

	t.Run("not found", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetProduct", ctx, int64(9)).Return(nil, shared.ErrNotFound)

		_, err := NewCatalogService(provider).GetProduct(ctx, 9)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestCatalogService_ListCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("top level", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetCategories", ctx, (*int64)(nil)).
			Return([]catalog.Category{{ID: 0, Name: "Electronics", SubcategoryIDs: []int64{4}}}, nil)

		out, err := NewCatalogService(provider).ListCategories(ctx, nil)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, []int64{4}, out[0].SubcategoryIDs)
	})

	t.Run("unknown parent", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetCategory", ctx, int64(99)).Return(nil, shared.ErrNotFound)

		parent := int64(99)
		_, err := NewCatalogService(provider).ListCategories(ctx, &parent)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		provider.AssertNotCalled(t, "GetCategories", mock.Anything, mock.Anything)
	})
}
