package storefront

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func (d *Dispatcher) showCategories(req *request) error {
	categories, err := d.catalog.GetCategories(req.ctx, nil)
	if err != nil {
		return err
	}

	rows := make([][]Button, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, row(Button{Label: c.Name, Data: conversation.BuildCallback(conversation.CallbackCategory, c.ID)}))
	}
	rows = append(rows, backToMainMenu(d.texts))

	if req.isCallback() {
		return req.send(edit(d.texts.ChooseCategory, rows...))
	}
	return req.send(reply(d.texts.ChooseCategory, rows...))
}

// showCategory lists the subcategories and one page of products of a category.
// Paging does not touch the conversation state.
func (d *Dispatcher) showCategory(req *request, categoryID int64, pageNum int) error {
	category, err := d.catalog.GetCategory(req.ctx, categoryID)
	if errors.Is(err, shared.ErrNotFound) {
		return req.send(reply(fmt.Sprintf(d.texts.CategoryDoesNotExist, categoryID)))
	}
	if err != nil {
		return err
	}

	children, err := d.catalog.GetCategories(req.ctx, &categoryID)
	if err != nil {
		return err
	}

	q := catalog.NewBrowseQuery().InCategory(categoryID).Page(pageNum)
	q.PageSize = d.config.PageSize
	page, err := d.catalog.BrowseProducts(req.ctx, q)
	if err != nil {
		return err
	}

	back := row(Button{Label: d.texts.BackToCategories, Data: conversation.CallbackCategories})
	if category.ParentID != nil {
		back = row(Button{Label: d.texts.BackToCategories, Data: conversation.BuildCallback(conversation.CallbackCategory, *category.ParentID)})
	}

	if len(children) == 0 && page.IsEmpty() {
		return req.send(edit(d.texts.NoProductsInCategory, back))
	}

	rows := make([][]Button, 0, len(children)+len(page.Products)+3)
	for _, c := range children {
		rows = append(rows, row(Button{Label: c.Name, Data: conversation.BuildCallback(conversation.CallbackCategory, c.ID)}))
	}
	for _, p := range page.Products {
		rows = append(rows, row(Button{Label: p.Name, Data: conversation.BuildCallback(conversation.CallbackProduct, p.ID)}))
	}

	var nav []Button
	if page.HasPrevious() {
		nav = append(nav, Button{Label: d.texts.Previous, Data: conversation.BuildCallback(conversation.CallbackCategory, categoryID, int64(page.PageNum-1))})
	}
	if page.HasNext() {
		nav = append(nav, Button{Label: d.texts.Next, Data: conversation.BuildCallback(conversation.CallbackCategory, categoryID, int64(page.PageNum+1))})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows,
		back,
		row(Button{Label: d.texts.SearchInCategory, Data: conversation.BuildCallback(conversation.CallbackStartSearchInCategory, categoryID)}),
	)

	text := fmt.Sprintf(d.texts.ProductsInCategory, category.Name)
	if n := page.NumPages(); n > 1 {
		text += fmt.Sprintf(" (%d/%d)", page.PageNum, n)
	}
	return req.send(edit(text, rows...))
}

func (d *Dispatcher) showProduct(req *request, productID int64, newMessage bool) error {
	product, err := d.catalog.GetProduct(req.ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return d.productDoesNotExist(req, productID)
	}
	if err != nil {
		return err
	}
	locale, err := d.catalog.GetMoneyLocale(req.ctx, req.userID())
	if err != nil {
		return err
	}

	var views []View
	switch {
	case len(product.Images) == 1:
		views = append(views, View{Mode: ModeReply, Photos: product.Images})
	case len(product.Images) > 1 && d.config.ImageView == ImageViewCarousel:
		views = append(views, d.carouselView(ModeReply, product, 0))
	case len(product.Images) > 1:
		views = append(views, View{Mode: ModeReply, Photos: product.Images})
	}

	var rows [][]Button
	switch {
	case product.HasVariants():
		for _, v := range product.Variants {
			if !v.HasStock() {
				continue
			}
			vid := v.ID
			rows = append(rows, row(Button{
				Label: v.Title,
				Data:  conversation.LineCallback(conversation.CallbackAddAndNotify, product.ID, &vid),
			}))
		}
	case product.HasStock():
		rows = append(rows, row(Button{
			Label: d.texts.AddToCart,
			Data:  conversation.LineCallback(conversation.CallbackAddAndNotify, product.ID, nil),
		}))
	}
	rows = append(rows,
		row(Button{Label: d.texts.Cart, Data: conversation.CallbackCart}),
		row(Button{Label: d.texts.BackToCategories, Data: conversation.BuildCallback(conversation.CallbackCategory, product.CategoryID)}),
	)

	mode := ModeEdit
	if newMessage || len(views) > 0 || !req.isCallback() {
		mode = ModeReply
	}
	views = append(views, View{Mode: mode, Text: d.productText(product, locale), Buttons: rows})
	return req.send(views...)
}

func (d *Dispatcher) productText(p *catalog.Product, locale valueobject.MoneyLocale) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", p.Description)
	}
	fmt.Fprintf(&b, "\n\n%s: %s", d.texts.Price, locale.FormatPrice(p.DiscountedPrice()))
	if p.HasDiscount() {
		fmt.Fprintf(&b, " (%s, %s%% off)", locale.FormatPrice(p.Price), p.Discount.Mul(decimal.NewFromInt(100)).StringFixed(0))
	}

	switch {
	case !p.HasStock():
		fmt.Fprintf(&b, "\n%s", d.texts.OutOfStock)
	case p.HasVariants():
		fmt.Fprintf(&b, "\n\n%s", d.texts.ChooseVariant)
		for _, v := range p.Variants {
			if v.HasStock() {
				fmt.Fprintf(&b, "\n- %s: %d", v.Title, v.Stock)
			} else {
				fmt.Fprintf(&b, "\n- %s: %s", v.Title, d.texts.OutOfStock)
			}
		}
	default:
		fmt.Fprintf(&b, "\n"+d.texts.InStock, p.Stock)
	}
	return b.String()
}

// carouselView shows one image with previous/next buttons; index is clamped
func (d *Dispatcher) carouselView(mode Mode, p *catalog.Product, index int) View {
	index = max(0, min(index, len(p.Images)-1))

	var nav []Button
	if index > 0 {
		nav = append(nav, Button{Label: d.texts.Previous, Data: conversation.BuildCallback(conversation.CallbackCarouselImage, p.ID, int64(index-1))})
	}
	if index < len(p.Images)-1 {
		nav = append(nav, Button{Label: d.texts.Next, Data: conversation.BuildCallback(conversation.CallbackCarouselImage, p.ID, int64(index+1))})
	}
	v := View{Mode: mode, Photos: []string{p.Images[index]}}
	if len(nav) > 0 {
		v.Buttons = [][]Button{nav}
	}
	return v
}

func (d *Dispatcher) showCarouselImage(req *request, productID int64, index int) error {
	product, err := d.catalog.GetProduct(req.ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return d.productDoesNotExist(req, productID)
	}
	if err != nil {
		return err
	}
	if len(product.Images) == 0 {
		return req.send(reply(d.texts.NoImages))
	}
	return req.send(d.carouselView(ModeEdit, product, index))
}

// search runs a free-text search, optionally scoped to a category
func (d *Dispatcher) search(req *request, text string, categoryID *int64) error {
	q := catalog.NewBrowseQuery().WithText(strings.TrimSpace(text))
	q.PageSize = 0
	if categoryID != nil {
		q = q.InCategory(*categoryID)
	}
	page, err := d.catalog.BrowseProducts(req.ctx, q)
	if err != nil {
		return err
	}
	if page.IsEmpty() {
		return req.send(reply(d.texts.NoProductFound))
	}

	rows := make([][]Button, 0, len(page.Products))
	for _, p := range page.Products {
		rows = append(rows, row(Button{Label: p.Name, Data: conversation.BuildCallback(conversation.CallbackProduct, p.ID) + ":" + conversation.FlagNewMessage}))
	}
	return req.send(reply(d.texts.SearchResults, rows...))
}
