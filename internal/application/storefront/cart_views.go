package storefront

import (
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/shared"
)

// lineView renders one cart line with its +/-/remove controls
func (d *Dispatcher) lineView(mode Mode, it cart.Item) View {
	return View{
		Mode: mode,
		Text: fmt.Sprintf("#%d %s: %d", it.ProductID, it.DisplayName(), it.Quantity),
		Buttons: [][]Button{row(
			Button{Label: "+", Data: conversation.LineCallback(conversation.CallbackAddOne, it.ProductID, it.VariantID)},
			Button{Label: "-", Data: conversation.LineCallback(conversation.CallbackRemoveOne, it.ProductID, it.VariantID)},
			Button{Label: d.texts.Remove, Data: conversation.LineCallback(conversation.CallbackRemoveLine, it.ProductID, it.VariantID)},
		)},
	}
}

func (d *Dispatcher) summaryText() cart.SummaryText {
	text := cart.DefaultSummaryText()
	text.Empty = d.texts.CartEmpty
	return text
}

// showCart sends one message per line followed by the summary
func (d *Dispatcher) showCart(req *request) error {
	c := d.carts.Get(req.ctx, req.userID())
	locale, err := d.catalog.GetMoneyLocale(req.ctx, req.userID())
	if err != nil {
		return err
	}

	if c.IsEmpty() {
		return req.send(reply(d.texts.CartEmpty, backToMainMenu(d.texts)))
	}

	views := make([]View, 0, c.NumItems()+1)
	for _, it := range c.Items() {
		views = append(views, d.lineView(ModeReply, it))
	}
	views = append(views, reply(c.Summary(locale, d.summaryText()),
		row(Button{Label: d.texts.Checkout, Data: conversation.CallbackCheckout}),
		backToMainMenu(d.texts),
	))
	return req.send(views...)
}

func (d *Dispatcher) addOne(req *request, productID int64, variantID *int64) error {
	it, err := d.carts.AddProduct(req.ctx, req.userID(), productID, variantID, 1)
	if errors.Is(err, shared.ErrNotFound) {
		return d.productDoesNotExist(req, productID)
	}
	if err != nil {
		return err
	}
	return req.send(d.lineView(ModeEdit, it))
}

func (d *Dispatcher) removeOne(req *request, productID int64, variantID *int64) error {
	it, err := d.carts.RemoveProduct(req.ctx, req.userID(), productID, variantID, 1)
	if errors.Is(err, shared.ErrNotFound) {
		return req.send(View{Mode: ModeDelete}, reply(d.texts.ItemNotFound))
	}
	if err != nil {
		return err
	}
	if it == nil {
		return req.send(View{Mode: ModeDelete})
	}
	return req.send(d.lineView(ModeEdit, *it))
}

// addAndNotify adds one unit from the product page and confirms in a new message
func (d *Dispatcher) addAndNotify(req *request, productID int64, variantID *int64) error {
	product, err := d.catalog.GetProduct(req.ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return d.productDoesNotExist(req, productID)
	}
	if err != nil {
		return err
	}

	it, err := d.carts.AddProduct(req.ctx, req.userID(), productID, variantID, 1)
	if err != nil {
		return err
	}
	c := d.carts.Get(req.ctx, req.userID())

	rows := [][]Button{row(Button{Label: fmt.Sprintf(d.texts.CartWithCount, c.NumItems()), Data: conversation.CallbackCart})}
	if category, err := d.catalog.GetCategory(req.ctx, product.CategoryID); err == nil {
		rows = append(rows, row(Button{Label: category.Name, Data: conversation.BuildCallback(conversation.CallbackCategory, category.ID)}))
	}
	return req.send(reply(fmt.Sprintf(d.texts.ProductAdded, productID, it.DisplayName()), rows...))
}

func (d *Dispatcher) removeLine(req *request, productID int64, variantID *int64) error {
	if !d.carts.RemoveItem(req.ctx, req.userID(), productID, variantID) {
		return req.send(View{Mode: ModeDelete}, reply(d.texts.ItemNotFound))
	}
	return req.send(View{Mode: ModeDelete}, reply(d.texts.ItemRemoved))
}
