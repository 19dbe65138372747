package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource map[int64]*catalog.Product

func (s staticSource) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

var options = InvoiceOptions{Title: "Your Order", Description: "Payment for your order.", Currency: valueobject.USD}

// twoLineCart totals 1999 minor units: 2 x 5.55 at 10% off -> 999, 1 x 10.00 -> 1000
func twoLineCart(t *testing.T) *cart.ShoppingCart {
	t.Helper()
	src := staticSource{
		1: {ID: 1, Name: "Tea", Price: decimal.RequireFromString("5.55"), Discount: decimal.RequireFromString("0.1")},
		2: {ID: 2, Name: "Mug", Price: decimal.RequireFromString("10.00")},
	}
	c := cart.NewShoppingCart(3)
	_, err := c.AddProduct(context.Background(), src, 1, nil, 2)
	require.NoError(t, err)
	_, err = c.AddProduct(context.Background(), src, 2, nil, 1)
	require.NoError(t, err)
	return c
}

func TestNewInvoice(t *testing.T) {
	inv, err := NewInvoice(twoLineCart(t), options)
	require.NoError(t, err)

	require.Len(t, inv.Prices, 2)
	assert.Equal(t, LabeledPrice{Label: "Tea x2", Amount: 999}, inv.Prices[0])
	assert.Equal(t, LabeledPrice{Label: "Mug x1", Amount: 1000}, inv.Prices[1])
	assert.Equal(t, int64(1999), inv.TotalAmount())
	assert.NotEmpty(t, inv.Payload)
	assert.Equal(t, int64(3), inv.UserID)
}

func TestNewInvoiceKeepsTheLines(t *testing.T) {
	c := twoLineCart(t)
	inv, err := NewInvoice(c, options)
	require.NoError(t, err)

	_, err = c.RemoveProduct(1, nil, 2)
	require.NoError(t, err)
	c.Clear()

	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Tea", inv.Items[0].Name)
	assert.Equal(t, 2, inv.Items[0].Quantity)
	assert.Equal(t, 1, inv.Items[1].Quantity)
}

func TestNewInvoiceEmptyCart(t *testing.T) {
	_, err := NewInvoice(cart.NewShoppingCart(1), options)
	assert.True(t, errors.Is(err, shared.ErrEmptyCart))
}

func TestInvoiceCheck(t *testing.T) {
	inv, err := NewInvoice(twoLineCart(t), options)
	require.NoError(t, err)

	assert.NoError(t, inv.Check(inv.Payload, valueobject.USD, 1999))
	assert.True(t, errors.Is(inv.Check(inv.Payload, valueobject.USD, 2000), shared.ErrPriceMismatch))
	assert.True(t, errors.Is(inv.Check(inv.Payload, valueobject.EUR, 1999), shared.ErrPriceMismatch))
	assert.True(t, errors.Is(inv.Check("other", valueobject.USD, 1999), shared.ErrInvalidState))
}
