package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestUnimplementedProvider(t *testing.T) {
	var p Provider = UnimplementedProvider{}
	ctx := context.Background()

	_, err := p.BrowseProducts(ctx, NewBrowseQuery())
	assert.True(t, errors.Is(err, shared.ErrNotImplemented))

	_, err = p.GetProduct(ctx, 1)
	assert.True(t, errors.Is(err, shared.ErrNotImplemented))

	_, err = p.GetCategory(ctx, 1)
	assert.True(t, errors.Is(err, shared.ErrNotImplemented))

	_, err = p.GetCategories(ctx, nil)
	assert.True(t, errors.Is(err, shared.ErrNotImplemented))

	_, err = p.GetMoneyLocale(ctx, 1)
	assert.True(t, errors.Is(err, shared.ErrNotImplemented))
}
