package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

func (d *Dispatcher) showCheckout(req *request) error {
	c := d.carts.Get(req.ctx, req.userID())
	if c.IsEmpty() {
		return req.send(reply(d.texts.NothingToCheckout), d.mainMenu())
	}
	locale, err := d.catalog.GetMoneyLocale(req.ctx, req.userID())
	if err != nil {
		return err
	}

	text := d.summaryText()
	text.Header = d.texts.CheckoutSummary
	return req.send(
		reply(c.Summary(locale, text)),
		reply(d.texts.ProceedToPayment,
			row(Button{Label: d.texts.PayNow, Data: conversation.CallbackPayNow}),
			backToMainMenu(d.texts),
		),
	)
}

func (d *Dispatcher) payNow(req *request) error {
	invoice, err := d.checkout.IssueInvoice(req.ctx, req.userID())
	if errors.Is(err, shared.ErrEmptyCart) {
		return req.send(reply(d.texts.NothingToCheckout), d.mainMenu())
	}
	if err != nil {
		return err
	}
	return req.send(View{Mode: ModeReply, Invoice: invoice})
}

// PreCheckout answers the payment provider before the charge.
// It returns whether to proceed and, if not, the reason shown to the user.
func (d *Dispatcher) PreCheckout(ctx context.Context, q payment.PreCheckoutQuery) (bool, string) {
	err := d.checkout.ValidatePreCheckout(ctx, q)
	switch {
	case err == nil:
		return true, ""
	case errors.Is(err, shared.ErrPriceMismatch):
		d.logger.Warn("pre-checkout price mismatch",
			zap.Int64("user_id", q.UserID),
			zap.String("payload", q.Payload),
			zap.Int64("total_amount", q.TotalAmount),
		)
		return false, d.texts.PriceMismatch
	default:
		d.logger.Info("pre-checkout rejected",
			zap.Int64("user_id", q.UserID),
			zap.String("payload", q.Payload),
			zap.Error(err),
		)
		return false, d.texts.InvoiceExpired
	}
}

// PaymentSucceeded records the order for a completed charge. Duplicate
// notifications for the same charge produce no output.
func (d *Dispatcher) PaymentSucceeded(ctx context.Context, p payment.SuccessfulPayment, sink Sink) error {
	unlock := d.locks.Lock(p.UserID)
	defer unlock()

	req := &request{
		ctx:    ctx,
		action: conversation.Action{UserID: p.UserID, Kind: conversation.ActionText},
		sink:   sink,
	}

	order, err := d.checkout.Settle(ctx, p)
	if errors.Is(err, shared.ErrAlreadyProcessed) {
		d.logger.Info("duplicate payment notification",
			zap.Int64("user_id", p.UserID),
			zap.String("charge_id", p.ProviderChargeID),
		)
		return nil
	}
	if err != nil {
		d.logger.Error("failed to record order",
			zap.Int64("user_id", p.UserID),
			zap.String("charge_id", p.ProviderChargeID),
			zap.Error(err),
		)
		return req.send(reply(d.texts.OrderNotRecorded))
	}

	d.logger.Info("order placed",
		zap.Int64("user_id", p.UserID),
		zap.String("order_id", order.ID.String()),
	)
	if err := d.sessions.Save(ctx, conversation.NewSession(p.UserID, d.machine.Now())); err != nil {
		d.logger.Warn("failed to reset conversation", zap.Int64("user_id", p.UserID), zap.Error(err))
	}
	return req.send(reply(d.texts.PaymentSuccessful), d.mainMenu())
}

func (d *Dispatcher) showOrders(req *request) error {
	orders, err := d.checkout.Orders(req.ctx, req.userID())
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return req.send(reply(d.texts.NoOrders, backToMainMenu(d.texts)))
	}
	locale, err := d.catalog.GetMoneyLocale(req.ctx, req.userID())
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(d.texts.YourOrders)
	for _, o := range orders {
		fmt.Fprintf(&b, "\n- #%s %s %s (%d) %s",
			o.ShortID(),
			o.CreatedAt.Format("2006-01-02"),
			valueobject.NewMoneyLocale(o.Currency, locale.Language).FormatPrice(o.TotalOrderPrice()),
			o.NumProducts(),
			o.Status,
		)
	}
	return req.send(reply(b.String(), backToMainMenu(d.texts)))
}

func (d *Dispatcher) showAccount(req *request) error {
	c := d.carts.Get(req.ctx, req.userID())
	count, err := d.checkout.CountOrders(req.ctx, req.userID())
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s\n\nUser ID: %d\n%s: %d (%d)\n%s: %d",
		d.texts.Account,
		req.userID(),
		d.texts.Cart, c.NumItems(), c.NumProducts(),
		d.texts.Orders, count,
	)
	return req.send(reply(text, backToMainMenu(d.texts)))
}
