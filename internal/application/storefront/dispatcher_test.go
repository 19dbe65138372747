package storefront

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/recommendation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCatalog is a small fixed catalog
type fakeCatalog struct {
	categories []catalog.Category
	products   []catalog.Product
}

func (f *fakeCatalog) BrowseProducts(_ context.Context, q catalog.BrowseQuery) (catalog.SearchPage, error) {
	var matches []catalog.Product
	for i := range f.products {
		p := f.products[i]
		if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
			continue
		}
		if q.Query != "" && !p.MatchesQuery(q.Query) {
			continue
		}
		matches = append(matches, p)
	}
	return catalog.Paginate(matches, q), nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return f.products[i].Clone(), nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product %d not found", id))
}

func (f *fakeCatalog) GetCategory(_ context.Context, id int64) (*catalog.Category, error) {
	for i := range f.categories {
		if f.categories[i].ID == id {
			c := f.categories[i]
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeCatalog) GetCategories(_ context.Context, parentID *int64) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range f.categories {
		switch {
		case parentID == nil && c.ParentID == nil:
			out = append(out, c)
		case parentID != nil && c.ParentID != nil && *c.ParentID == *parentID:
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) GetMoneyLocale(context.Context, int64) (valueobject.MoneyLocale, error) {
	return valueobject.DefaultMoneyLocale(), nil
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[int64]conversation.Session
	// users whose stored value no longer decodes, until the next Save
	corrupt map[int64]bool
}

func (s *memorySessions) Get(_ context.Context, userID int64) (*conversation.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.corrupt[userID] {
		return nil, fmt.Errorf("session %d: %w", userID, conversation.ErrUnreadableSession)
	}
	if sess, ok := s.sessions[userID]; ok {
		return &sess, nil
	}
	return conversation.NewSession(userID, time.Now()), nil
}

func (s *memorySessions) Save(_ context.Context, session *conversation.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = *session
	delete(s.corrupt, session.UserID)
	return nil
}

func (s *memorySessions) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) IssueInvoice(ctx context.Context, userID int64) (*payment.Invoice, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *MockCheckout) ValidatePreCheckout(ctx context.Context, q payment.PreCheckoutQuery) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockCheckout) Settle(ctx context.Context, p payment.SuccessfulPayment) (*trade.Order, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockCheckout) Orders(ctx context.Context, userID int64) ([]trade.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockCheckout) CountOrders(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type fakeRecommendations struct {
	enabled bool
	recs    []recommendation.Recommendation
	err     error
}

func (f *fakeRecommendations) Enabled() bool { return f.enabled }

func (f *fakeRecommendations) Recommend(context.Context, int64, string) ([]recommendation.Recommendation, error) {
	return f.recs, f.err
}

const testUser int64 = 42

type fixture struct {
	dispatcher *Dispatcher
	catalog    *fakeCatalog
	carts      *appcart.Service
	checkout   *MockCheckout
	recs       *fakeRecommendations
	sessions   *memorySessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	electronics, err := catalog.NewCategory(1, "Electronics")
	require.NoError(t, err)
	phones, err := catalog.NewChildCategory(2, "Phones", electronics)
	require.NoError(t, err)
	clothing, err := catalog.NewCategory(3, "Clothing")
	require.NoError(t, err)

	fc := &fakeCatalog{categories: []catalog.Category{*electronics, *phones, *clothing}}
	for i := int64(1); i <= 7; i++ {
		p, err := catalog.NewProduct(i, fmt.Sprintf("Product %d", i), 1, decimal.NewFromInt(10*i), 5)
		require.NoError(t, err)
		p.Description = fmt.Sprintf("This is product %d.", i)
		fc.products = append(fc.products, *p)
	}

	shirt, err := catalog.NewProduct(20, "Shirt", 3, decimal.NewFromInt(25), 0)
	require.NoError(t, err)
	require.NoError(t, shirt.AddVariant(catalog.ProductVariant{ID: 1, Title: "S", Stock: 3}))
	require.NoError(t, shirt.AddVariant(catalog.ProductVariant{ID: 2, Title: "M", Stock: 0}))
	require.NoError(t, shirt.AddVariant(catalog.ProductVariant{ID: 3, Title: "L", Stock: 1}))
	fc.products = append(fc.products, *shirt)

	phone, err := catalog.NewProduct(30, "Phone", 2, decimal.NewFromInt(300), 2)
	require.NoError(t, err)
	phone.Images = []string{"https://img/1.png", "https://img/2.png", "https://img/3.png"}
	fc.products = append(fc.products, *phone)

	logger := zap.NewNop()
	carts := appcart.NewService(fc, nil, logger)
	checkout := new(MockCheckout)
	recs := &fakeRecommendations{}
	sessions := &memorySessions{sessions: make(map[int64]conversation.Session), corrupt: make(map[int64]bool)}

	d := NewDispatcher(fc, carts, checkout, recs, sessions, conversation.NewMachine(time.Hour), Config{ImageView: ImageViewCarousel}, logger)
	return &fixture{dispatcher: d, catalog: fc, carts: carts, checkout: checkout, recs: recs, sessions: sessions}
}

func (f *fixture) handle(t *testing.T, action conversation.Action) []View {
	t.Helper()
	action.UserID = testUser
	sink := NewCollector()
	require.NoError(t, f.dispatcher.Handle(context.Background(), action, sink))
	return sink.Views()
}

func (f *fixture) command(t *testing.T, cmd string) []View {
	return f.handle(t, conversation.Action{Kind: conversation.ActionCommand, Command: cmd})
}

func (f *fixture) text(t *testing.T, text string) []View {
	return f.handle(t, conversation.Action{Kind: conversation.ActionText, Text: text})
}

func (f *fixture) press(t *testing.T, data string) []View {
	return f.handle(t, conversation.Action{Kind: conversation.ActionCallback, Data: data})
}

func (f *fixture) state(t *testing.T) conversation.State {
	s, err := f.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)
	return s.State
}

func buttonData(v View) []string {
	var out []string
	for _, r := range v.Buttons {
		for _, b := range r {
			out = append(out, b.Data)
		}
	}
	return out
}

func TestStartShowsWelcomeAndMainMenu(t *testing.T) {
	f := newFixture(t)

	views := f.command(t, conversation.CommandStart)

	require.Len(t, views, 2)
	assert.Equal(t, DefaultTexts().Welcome, views[0].Text)
	assert.Equal(t, DefaultTexts().MainMenu, views[1].Text)
	assert.Equal(t, []string{"categories", "cart", "orders", "account"}, buttonData(views[1]))
}

func TestMainMenuOffersRecommendationsWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.recs.enabled = true

	views := f.press(t, "main_menu")

	require.Len(t, views, 1)
	assert.Contains(t, buttonData(views[0]), "recommendations")
}

func TestUnreadableSessionStartsOver(t *testing.T) {
	f := newFixture(t)
	f.sessions.corrupt[testUser] = true

	views := f.command(t, conversation.CommandStart)
	require.Len(t, views, 2)
	assert.Equal(t, DefaultTexts().Welcome, views[0].Text)
	assert.False(t, f.sessions.corrupt[testUser], "the fresh session replaces the stored one")

	f.press(t, "start_search")
	assert.Equal(t, conversation.StateAwaitingSearchQuery, f.state(t))
}

func TestShowCategories(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "categories")
	require.Len(t, views, 1)
	assert.Equal(t, ModeEdit, views[0].Mode)
	assert.Equal(t, []string{"category:1", "category:3", "main_menu"}, buttonData(views[0]))

	views = f.command(t, conversation.CommandCategories)
	require.Len(t, views, 1)
	assert.Equal(t, ModeReply, views[0].Mode)
}

func TestCategoryPagination(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "category:1")
	require.Len(t, views, 1)
	data := buttonData(views[0])
	assert.Equal(t, "category:2", data[0])
	assert.Contains(t, data, "product:1")
	assert.Contains(t, data, "product:5")
	assert.NotContains(t, data, "product:6")
	assert.Contains(t, data, "category:1:2")
	assert.NotContains(t, data, "category:1:0")
	assert.Contains(t, data, "start_search_in_category:1")
	assert.Equal(t, "Products in category Electronics: (1/2)", views[0].Text)

	views = f.press(t, "category:1:2")
	require.Len(t, views, 1)
	data = buttonData(views[0])
	assert.Contains(t, data, "product:6")
	assert.Contains(t, data, "product:7")
	assert.Contains(t, data, "category:1:1")
	assert.NotContains(t, data, "category:1:3")
	assert.Equal(t, conversation.StateIdle, f.state(t))
}

func TestSubcategoryBacksToParent(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "category:2")
	require.Len(t, views, 1)
	data := buttonData(views[0])
	assert.Contains(t, data, "product:30")
	assert.Contains(t, data, "category:1")
}

func TestUnknownCategory(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "category:99")
	require.Len(t, views, 1)
	assert.Equal(t, "Category does not exist: #99", views[0].Text)
}

func TestShowProductWithVariants(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "product:20")
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, ModeEdit, v.Mode)
	assert.Contains(t, v.Text, "*Shirt*")
	assert.Contains(t, v.Text, "Price: $25.00")
	assert.Contains(t, v.Text, "- M: Out of stock")
	assert.Equal(t, []string{
		"add_one_item_to_cart_and_notify_message:20:1",
		"add_one_item_to_cart_and_notify_message:20:3",
		"cart",
		"category:3",
	}, buttonData(v))
}

func TestShowProductAsNewMessage(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "product:1:new")
	require.Len(t, views, 1)
	assert.Equal(t, ModeReply, views[0].Mode)
	assert.Contains(t, buttonData(views[0]), "add_one_item_to_cart_and_notify_message:1")
	assert.Contains(t, views[0].Text, "In stock: 5")
}

func TestShowProductCarousel(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "product:30")
	require.Len(t, views, 2)
	assert.Equal(t, []string{"https://img/1.png"}, views[0].Photos)
	assert.Equal(t, []string{"change_product_carousel_image:30:1"}, buttonData(views[0]))

	views = f.press(t, "change_product_carousel_image:30:2")
	require.Len(t, views, 1)
	assert.Equal(t, ModeEdit, views[0].Mode)
	assert.Equal(t, []string{"https://img/3.png"}, views[0].Photos)
	assert.Equal(t, []string{"change_product_carousel_image:30:1"}, buttonData(views[0]))

	views = f.press(t, "change_product_carousel_image:30:9")
	require.Len(t, views, 1)
	assert.Equal(t, []string{"https://img/3.png"}, views[0].Photos)
}

func TestUnknownProduct(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "product:99")
	require.Len(t, views, 1)
	assert.Equal(t, "Product does not exist: #99", views[0].Text)
}

func TestMalformedCallback(t *testing.T) {
	f := newFixture(t)

	for _, data := range []string{"", "nope", "product", "product:abc", "category:1:2:3"} {
		views := f.press(t, data)
		require.Len(t, views, 1, data)
		assert.Equal(t, DefaultTexts().UnknownAction, views[0].Text, data)
	}
}

func TestSearchFlow(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "start_search")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().WriteQuery, views[0].Text)
	assert.Equal(t, conversation.StateAwaitingSearchQuery, f.state(t))

	views = f.text(t, "PRODUCT 7")
	require.Len(t, views, 1)
	assert.Equal(t, []string{"product:7:new"}, buttonData(views[0]))
	assert.Equal(t, conversation.StateIdle, f.state(t))

	views = f.text(t, "does not exist")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().NoProductFound, views[0].Text)
}

func TestSearchInCategory(t *testing.T) {
	f := newFixture(t)

	f.press(t, "start_search_in_category:3")
	assert.Equal(t, conversation.StateAwaitingSearchQueryInCategory, f.state(t))

	views := f.text(t, "product")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().NoProductFound, views[0].Text)

	f.press(t, "start_search_in_category:3")
	views = f.text(t, "shirt")
	require.Len(t, views, 1)
	assert.Equal(t, []string{"product:20:new"}, buttonData(views[0]))
}

func TestSearchIsCancelledByMainMenu(t *testing.T) {
	f := newFixture(t)

	f.command(t, conversation.CommandSearch)
	assert.Equal(t, conversation.StateAwaitingSearchQuery, f.state(t))

	f.press(t, "main_menu")
	assert.Equal(t, conversation.StateIdle, f.state(t))
}

func TestAddAndNotify(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "add_one_item_to_cart_and_notify_message:20:3")
	require.Len(t, views, 1)
	assert.Equal(t, "Product added to cart: #20 Shirt (L)", views[0].Text)
	assert.Equal(t, "Cart (1)", views[0].Buttons[0][0].Label)
	assert.Equal(t, []string{"cart", "category:3"}, buttonData(views[0]))

	views = f.press(t, "add_one_item_to_cart_and_notify_message:1")
	require.Len(t, views, 1)
	assert.Equal(t, "Cart (2)", views[0].Buttons[0][0].Label)
}

func TestAddWithoutVariant(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "add_one_item_to_cart_and_notify_message:20")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().VariantRequired, views[0].Text)
	assert.True(t, f.carts.Get(context.Background(), testUser).IsEmpty())
}

func TestCartLineControls(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "add_one_item_to_cart:2")
	require.Len(t, views, 1)
	assert.Equal(t, ModeEdit, views[0].Mode)
	assert.Equal(t, "#2 Product 2: 1", views[0].Text)
	assert.Equal(t, []string{
		"add_one_item_to_cart:2",
		"remove_one_item_from_cart:2",
		"remove_product_from_cart:2",
	}, buttonData(views[0]))

	views = f.press(t, "add_one_item_to_cart:2")
	assert.Equal(t, "#2 Product 2: 2", views[0].Text)

	views = f.press(t, "remove_one_item_from_cart:2")
	assert.Equal(t, "#2 Product 2: 1", views[0].Text)

	views = f.press(t, "remove_one_item_from_cart:2")
	require.Len(t, views, 1)
	assert.Equal(t, ModeDelete, views[0].Mode)
	assert.True(t, f.carts.Get(context.Background(), testUser).IsEmpty())

	views = f.press(t, "remove_one_item_from_cart:2")
	require.Len(t, views, 2)
	assert.Equal(t, ModeDelete, views[0].Mode)
	assert.Equal(t, DefaultTexts().ItemNotFound, views[1].Text)
}

func TestRemoveLine(t *testing.T) {
	f := newFixture(t)

	f.press(t, "add_one_item_to_cart:20:1")
	views := f.press(t, "remove_product_from_cart:20:1")
	require.Len(t, views, 2)
	assert.Equal(t, ModeDelete, views[0].Mode)
	assert.Equal(t, DefaultTexts().ItemRemoved, views[1].Text)

	views = f.press(t, "remove_product_from_cart:20:1")
	require.Len(t, views, 2)
	assert.Equal(t, DefaultTexts().ItemNotFound, views[1].Text)
}

func TestShowCart(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "cart")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().CartEmpty, views[0].Text)

	f.press(t, "add_one_item_to_cart:1")
	f.press(t, "add_one_item_to_cart:1")
	f.press(t, "add_one_item_to_cart:20:1")

	views = f.command(t, conversation.CommandCart)
	require.Len(t, views, 3)
	assert.Equal(t, "#1 Product 1: 2", views[0].Text)
	assert.Equal(t, "#20 Shirt (S): 1", views[1].Text)
	assert.Contains(t, views[2].Text, "Total: $45.00")
	assert.Contains(t, buttonData(views[2]), "checkout")
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	views := f.press(t, "checkout")
	require.Len(t, views, 2)
	assert.Equal(t, DefaultTexts().NothingToCheckout, views[0].Text)
	assert.Equal(t, DefaultTexts().MainMenu, views[1].Text)
}

func TestCheckoutAndPay(t *testing.T) {
	f := newFixture(t)
	f.press(t, "add_one_item_to_cart:3")

	views := f.press(t, "checkout")
	require.Len(t, views, 2)
	assert.Contains(t, views[0].Text, DefaultTexts().CheckoutSummary)
	assert.Contains(t, views[0].Text, "Total: $30.00")
	assert.Contains(t, buttonData(views[1]), "pay_now")

	invoice, err := payment.NewInvoice(f.carts.Get(context.Background(), testUser), payment.InvoiceOptions{Title: "Order"})
	require.NoError(t, err)
	f.checkout.On("IssueInvoice", mock.Anything, testUser).Return(invoice, nil).Once()

	views = f.press(t, "pay_now")
	require.Len(t, views, 1)
	assert.Same(t, invoice, views[0].Invoice)
	f.checkout.AssertExpectations(t)
}

func TestPreCheckout(t *testing.T) {
	f := newFixture(t)
	ok := payment.PreCheckoutQuery{UserID: testUser, Payload: "a"}
	wrong := payment.PreCheckoutQuery{UserID: testUser, Payload: "b"}
	stale := payment.PreCheckoutQuery{UserID: testUser, Payload: "c"}
	f.checkout.On("ValidatePreCheckout", mock.Anything, ok).Return(nil)
	f.checkout.On("ValidatePreCheckout", mock.Anything, wrong).Return(shared.ErrPriceMismatch)
	f.checkout.On("ValidatePreCheckout", mock.Anything, stale).Return(shared.ErrInvalidState)

	proceed, msg := f.dispatcher.PreCheckout(context.Background(), ok)
	assert.True(t, proceed)
	assert.Empty(t, msg)

	proceed, msg = f.dispatcher.PreCheckout(context.Background(), wrong)
	assert.False(t, proceed)
	assert.Equal(t, "Price mismatch", msg)

	proceed, msg = f.dispatcher.PreCheckout(context.Background(), stale)
	assert.False(t, proceed)
	assert.Equal(t, DefaultTexts().InvoiceExpired, msg)
}

func TestPaymentSucceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := payment.SuccessfulPayment{UserID: testUser, ProviderChargeID: "ch_1"}

	f.checkout.On("Settle", mock.Anything, p).Return(&trade.Order{UserID: testUser}, nil).Once()
	sink := NewCollector()
	require.NoError(t, f.dispatcher.PaymentSucceeded(ctx, p, sink))
	views := sink.Views()
	require.Len(t, views, 2)
	assert.Equal(t, DefaultTexts().PaymentSuccessful, views[0].Text)

	f.checkout.On("Settle", mock.Anything, p).Return(nil, shared.ErrAlreadyProcessed).Once()
	sink = NewCollector()
	require.NoError(t, f.dispatcher.PaymentSucceeded(ctx, p, sink))
	assert.Empty(t, sink.Views())

	f.checkout.On("Settle", mock.Anything, p).Return(nil, errors.New("db down")).Once()
	sink = NewCollector()
	require.NoError(t, f.dispatcher.PaymentSucceeded(ctx, p, sink))
	require.Len(t, sink.Views(), 1)
	assert.Equal(t, DefaultTexts().OrderNotRecorded, sink.Views()[0].Text)

	f.checkout.AssertExpectations(t)
}

func TestShowOrdersAndAccount(t *testing.T) {
	f := newFixture(t)
	f.checkout.On("Orders", mock.Anything, testUser).Return([]trade.Order{}, nil).Once()

	views := f.press(t, "orders")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().NoOrders, views[0].Text)

	f.press(t, "add_one_item_to_cart:1")
	c := f.carts.Get(context.Background(), testUser)
	order, err := trade.NewOrderFromCart(c, valueobject.USD, "ch_1")
	require.NoError(t, err)
	f.checkout.On("Orders", mock.Anything, testUser).Return([]trade.Order{*order}, nil).Once()
	f.checkout.On("CountOrders", mock.Anything, testUser).Return(1, nil).Once()

	views = f.press(t, "orders")
	require.Len(t, views, 1)
	assert.Contains(t, views[0].Text, order.ShortID())
	assert.Contains(t, views[0].Text, "$10.00")

	views = f.press(t, "account")
	require.Len(t, views, 1)
	assert.Contains(t, views[0].Text, "User ID: 42")
	assert.Contains(t, views[0].Text, "Orders: 1")
}

func TestRecommendationsDisabled(t *testing.T) {
	f := newFixture(t)

	views := f.command(t, conversation.CommandRecommend)
	require.Len(t, views, 2)
	assert.Equal(t, DefaultTexts().RecommendationsDisabled, views[0].Text)
	assert.Equal(t, conversation.StateIdle, f.state(t))
}

func TestRecommendationFlow(t *testing.T) {
	f := newFixture(t)
	f.recs.enabled = true
	f.recs.recs = []recommendation.Recommendation{{ID: 3, Name: "Product 3"}}

	views := f.press(t, "recommendations")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().RecommendationPrompt, views[0].Text)
	assert.Equal(t, conversation.StateAwaitingRecommendationRequest, f.state(t))

	views = f.text(t, "something cheap")
	require.Len(t, views, 1)
	assert.Contains(t, views[0].Text, "- 3: Product 3")
	assert.Equal(t, []string{"product:3:new", "main_menu"}, buttonData(views[0]))
	assert.Equal(t, conversation.StateIdle, f.state(t))

	f.recs.err = shared.ErrCollaboratorFailure
	f.press(t, "recommendations")
	views = f.text(t, "anything")
	require.Len(t, views, 1)
	assert.Equal(t, DefaultTexts().NoRecommendations, views[0].Text)
}

type failingSink struct{}

func (failingSink) Send(context.Context, int64, View) error { return errors.New("connection reset") }

func TestSinkErrorsAreReturned(t *testing.T) {
	f := newFixture(t)

	err := f.dispatcher.Handle(context.Background(), conversation.Action{UserID: testUser, Kind: conversation.ActionCallback, Data: "cart"}, failingSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestConcurrentActionsAreSerializedPerUser(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.dispatcher.Handle(context.Background(),
				conversation.Action{UserID: testUser, Kind: conversation.ActionCallback, Data: "add_one_item_to_cart:1"},
				NewCollector())
		}()
	}
	wg.Wait()

	it, ok := f.carts.Get(context.Background(), testUser).Item(1, nil)
	require.True(t, ok)
	assert.Equal(t, 20, it.Quantity)
}
