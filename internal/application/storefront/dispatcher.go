package storefront

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/recommendation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Carts is the cart service used by the storefront
type Carts interface {
	Get(ctx context.Context, userID int64) *cart.ShoppingCart
	AddProduct(ctx context.Context, userID, productID int64, variantID *int64, quantity int) (cart.Item, error)
	RemoveProduct(ctx context.Context, userID, productID int64, variantID *int64, quantity int) (*cart.Item, error)
	RemoveItem(ctx context.Context, userID, productID int64, variantID *int64) bool
}

// Checkout is the checkout service used by the storefront
type Checkout interface {
	IssueInvoice(ctx context.Context, userID int64) (*payment.Invoice, error)
	ValidatePreCheckout(ctx context.Context, q payment.PreCheckoutQuery) error
	Settle(ctx context.Context, p payment.SuccessfulPayment) (*trade.Order, error)
	Orders(ctx context.Context, userID int64) ([]trade.Order, error)
	CountOrders(ctx context.Context, userID int64) (int, error)
}

// Recommendations is the recommendation service used by the storefront
type Recommendations interface {
	Enabled() bool
	Recommend(ctx context.Context, userID int64, request string) ([]recommendation.Recommendation, error)
}

// ImageView selects how products with several images are shown
type ImageView string

const (
	ImageViewGallery  ImageView = "gallery"
	ImageViewCarousel ImageView = "carousel"
)

// Config holds storefront settings
type Config struct {
	WelcomeMessage string
	ImageView      ImageView
	PageSize       int
	Texts          Texts
}

// Dispatcher resolves user actions into intents and renders the resulting views.
// Actions of one user are processed one at a time, in arrival order.
type Dispatcher struct {
	catalog         catalog.Provider
	carts           Carts
	checkout        Checkout
	recommendations Recommendations
	sessions        conversation.SessionStore
	machine         *conversation.Machine
	locks           *appshared.KeyedMutex
	config          Config
	texts           Texts
	logger          *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	provider catalog.Provider,
	carts Carts,
	checkout Checkout,
	recommendations Recommendations,
	sessions conversation.SessionStore,
	machine *conversation.Machine,
	config Config,
	logger *zap.Logger,
) *Dispatcher {
	if config.Texts == (Texts{}) {
		config.Texts = DefaultTexts()
	}
	if config.WelcomeMessage != "" {
		config.Texts.Welcome = config.WelcomeMessage
	}
	if config.ImageView == "" {
		config.ImageView = ImageViewGallery
	}
	if config.PageSize <= 0 {
		config.PageSize = catalog.DefaultPageSize
	}
	return &Dispatcher{
		catalog:         provider,
		carts:           carts,
		checkout:        checkout,
		recommendations: recommendations,
		sessions:        sessions,
		machine:         machine,
		locks:           appshared.NewKeyedMutex(),
		config:          config,
		texts:           config.Texts,
		logger:          logger,
	}
}

// request carries one action through the handlers
type request struct {
	ctx    context.Context
	action conversation.Action
	cb     conversation.Callback
	step   conversation.Step
	sink   Sink
}

func (r *request) userID() int64 {
	return r.action.UserID
}

// isCallback reports whether the action came from a button press
func (r *request) isCallback() bool {
	return r.action.Kind == conversation.ActionCallback
}

func (r *request) send(views ...View) error {
	for _, v := range views {
		if err := r.sink.Send(r.ctx, r.userID(), v); err != nil {
			return &sinkError{err: err}
		}
	}
	return nil
}

// Handle processes one action. Domain failures are turned into messages for
// the user; only transport failures are returned.
func (d *Dispatcher) Handle(ctx context.Context, action conversation.Action, sink Sink) error {
	unlock := d.locks.Lock(action.UserID)
	defer unlock()

	req := &request{ctx: ctx, action: action, sink: sink}

	if action.Kind == conversation.ActionCallback {
		cb, err := conversation.ParseCallback(action.Data)
		if err != nil {
			d.logger.Warn("malformed callback",
				zap.Int64("user_id", action.UserID),
				zap.String("data", action.Data),
				zap.Error(err),
			)
			return req.send(reply(d.texts.UnknownAction))
		}
		req.cb = cb
	}

	step, err := d.advance(ctx, action, req.cb)
	if err != nil {
		return d.fail(req, err)
	}
	req.step = step

	if err := d.route(req); err != nil {
		return d.fail(req, err)
	}
	return nil
}

// advance fires the state machine for the action and persists the session
func (d *Dispatcher) advance(ctx context.Context, action conversation.Action, cb conversation.Callback) (conversation.Step, error) {
	session, err := d.sessions.Get(ctx, action.UserID)
	switch {
	case errors.Is(err, conversation.ErrUnreadableSession):
		d.logger.Warn("discarding unreadable session",
			zap.Int64("user_id", action.UserID),
			zap.Error(err),
		)
		session = conversation.NewSession(action.UserID, d.machine.Now())
	case err != nil:
		return conversation.Step{}, err
	}

	event := conversation.EventFor(action, cb)
	if event.Trigger == conversation.TriggerStartRecommendation && !d.recommendationsEnabled() {
		event = conversation.Event{Trigger: conversation.TriggerNavigate}
	}

	step, err := d.machine.Fire(session, event)
	if err != nil {
		d.logger.Warn("conversation reset",
			zap.Int64("user_id", action.UserID),
			zap.String("state", session.State.String()),
			zap.Error(err),
		)
		session = conversation.NewSession(action.UserID, d.machine.Now())
		if saveErr := d.sessions.Save(ctx, session); saveErr != nil {
			return step, saveErr
		}
		return step, err
	}
	if step.Expired {
		d.logger.Debug("conversation state expired", zap.Int64("user_id", action.UserID))
	}
	if err := d.sessions.Save(ctx, session); err != nil {
		return step, err
	}
	return step, nil
}

func (d *Dispatcher) route(req *request) error {
	switch req.action.Kind {
	case conversation.ActionText:
		return d.handleText(req)
	case conversation.ActionCommand:
		return d.handleCommand(req)
	case conversation.ActionCallback:
		return d.handleCallback(req)
	}
	return req.send(reply(d.texts.UnknownAction))
}

func (d *Dispatcher) handleText(req *request) error {
	text := req.action.Text
	switch req.step.Intent {
	case conversation.IntentSearchInCategory:
		return d.search(req, text, req.step.CategoryID)
	case conversation.IntentRecommend:
		return d.recommend(req, text)
	default:
		return d.search(req, text, nil)
	}
}

func (d *Dispatcher) handleCommand(req *request) error {
	switch req.action.Command {
	case conversation.CommandStart:
		var views []View
		if d.texts.Welcome != "" {
			views = append(views, reply(d.texts.Welcome))
		}
		views = append(views, d.mainMenu())
		return req.send(views...)
	case conversation.CommandCancel:
		return req.send(d.mainMenu())
	case conversation.CommandSearch:
		return req.send(reply(d.texts.WriteQuery))
	case conversation.CommandCategories:
		return d.showCategories(req)
	case conversation.CommandCart:
		return d.showCart(req)
	case conversation.CommandCheckout:
		return d.showCheckout(req)
	case conversation.CommandOrders:
		return d.showOrders(req)
	case conversation.CommandAccount:
		return d.showAccount(req)
	case conversation.CommandRecommend:
		return d.startRecommendation(req)
	}
	return req.send(reply(d.texts.UnknownCommand))
}

func (d *Dispatcher) handleCallback(req *request) error {
	cb := req.cb
	switch cb.Name {
	case conversation.CallbackMainMenu:
		return req.send(d.mainMenu())
	case conversation.CallbackCategories:
		return d.showCategories(req)
	case conversation.CallbackCategory:
		page := 1
		if p := cb.OptionalInt(1); p != nil {
			page = int(*p)
		}
		return d.showCategory(req, cb.Int(0), page)
	case conversation.CallbackProduct:
		return d.showProduct(req, cb.Int(0), cb.HasFlag(conversation.FlagNewMessage))
	case conversation.CallbackCarouselImage:
		return d.showCarouselImage(req, cb.Int(0), int(cb.Int(1)))
	case conversation.CallbackStartSearch, conversation.CallbackStartSearchInCategory:
		return req.send(reply(d.texts.WriteQuery))
	case conversation.CallbackRecommendations:
		return d.startRecommendation(req)
	case conversation.CallbackCart:
		return d.showCart(req)
	case conversation.CallbackAddOne:
		return d.addOne(req, cb.Int(0), cb.OptionalInt(1))
	case conversation.CallbackRemoveOne:
		return d.removeOne(req, cb.Int(0), cb.OptionalInt(1))
	case conversation.CallbackAddAndNotify:
		return d.addAndNotify(req, cb.Int(0), cb.OptionalInt(1))
	case conversation.CallbackRemoveLine:
		return d.removeLine(req, cb.Int(0), cb.OptionalInt(1))
	case conversation.CallbackCheckout:
		return d.showCheckout(req)
	case conversation.CallbackPayNow:
		return d.payNow(req)
	case conversation.CallbackOrders:
		return d.showOrders(req)
	case conversation.CallbackAccount:
		return d.showAccount(req)
	}
	return req.send(reply(d.texts.UnknownAction))
}

// fail converts a handler error into a user message. Sink errors are returned.
func (d *Dispatcher) fail(req *request, err error) error {
	var se *sinkError
	if errors.As(err, &se) {
		return se
	}

	var text string
	switch {
	case errors.Is(err, shared.ErrInvalidOperation):
		text = d.texts.VariantRequired
	case errors.Is(err, shared.ErrEmptyCart):
		text = d.texts.CartEmpty
	case errors.Is(err, shared.ErrNotFound):
		text = err.Error()
	default:
		text = d.texts.GenericError
	}
	d.logger.Warn("action failed",
		zap.Int64("user_id", req.userID()),
		zap.String("kind", string(req.action.Kind)),
		zap.String("data", req.action.Data),
		zap.Error(err),
	)
	return req.send(reply(text))
}

func (d *Dispatcher) recommendationsEnabled() bool {
	return d.recommendations != nil && d.recommendations.Enabled()
}

func (d *Dispatcher) mainMenu() View {
	rows := [][]Button{
		row(Button{Label: d.texts.Categories, Data: conversation.CallbackCategories}),
		row(Button{Label: d.texts.Cart, Data: conversation.CallbackCart}),
		row(Button{Label: d.texts.Orders, Data: conversation.CallbackOrders}),
		row(Button{Label: d.texts.Account, Data: conversation.CallbackAccount}),
	}
	if d.recommendationsEnabled() {
		rows = append(rows, row(Button{Label: d.texts.Recommendations, Data: conversation.CallbackRecommendations}))
	}
	return reply(d.texts.MainMenu, rows...)
}

func backToMainMenu(t Texts) []Button {
	return row(Button{Label: t.BackToMainMenu, Data: conversation.CallbackMainMenu})
}

func (d *Dispatcher) productDoesNotExist(req *request, productID int64) error {
	return req.send(reply(fmt.Sprintf(d.texts.ProductDoesNotExist, productID)))
}
