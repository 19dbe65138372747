package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// CartStore is the part of the cart service checkout depends on
type CartStore interface {
	Get(ctx context.Context, userID int64) *cart.ShoppingCart
	Update(ctx context.Context, userID int64, reason cart.ChangeReason, fn func(c *cart.ShoppingCart) error) error
}

// Config holds checkout settings
type Config struct {
	Invoice payment.InvoiceOptions
	// SettlementTTL bounds how long provider charge ids are remembered
	SettlementTTL time.Duration
}

// Service runs checkout: invoice issue, pre-checkout validation and settlement.
// The invoice issued for a user is cached and wins over the live cart. A cart
// change invalidates a pending invoice. Once pre-checkout approves it, the
// invoice is held by payload until settlement consumes it, and settlement
// records its lines rather than the cart's.
type Service struct {
	carts       CartStore
	orders      trade.OrderRepository
	publisher   shared.EventPublisher
	idempotency shared.IdempotencyStore
	config      Config
	logger      *zap.Logger

	mu       sync.Mutex
	invoices map[int64]*payment.Invoice
	approved map[string]*payment.Invoice
}

// NewService creates a new checkout Service
func NewService(
	carts CartStore,
	orders trade.OrderRepository,
	publisher shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	config Config,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = shared.NopEventPublisher{}
	}
	if config.SettlementTTL <= 0 {
		config.SettlementTTL = shared.DefaultIdempotencyTTL
	}
	return &Service{
		carts:       carts,
		orders:      orders,
		publisher:   publisher,
		idempotency: idempotency,
		config:      config,
		logger:      logger,
		invoices:    make(map[int64]*payment.Invoice),
		approved:    make(map[string]*payment.Invoice),
	}
}

// IssueInvoice prices the user's cart and caches the result.
// An empty cart yields shared.ErrEmptyCart and no invoice.
func (s *Service) IssueInvoice(ctx context.Context, userID int64) (*payment.Invoice, error) {
	c := s.carts.Get(ctx, userID)
	invoice, err := payment.NewInvoice(c, s.config.Invoice)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.invoices[userID] = invoice
	s.mu.Unlock()

	s.logger.Info("invoice issued",
		zap.Int64("user_id", userID),
		zap.String("payload", invoice.Payload),
		zap.Int64("total_amount", invoice.TotalAmount()),
	)
	return invoice, nil
}

// PendingInvoice returns the cached invoice of a user
func (s *Service) PendingInvoice(userID int64) (*payment.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[userID]
	return inv, ok
}

// InvalidateInvoice drops the cached invoice of a user
func (s *Service) InvalidateInvoice(userID int64) {
	s.mu.Lock()
	_, had := s.invoices[userID]
	delete(s.invoices, userID)
	s.mu.Unlock()

	if had {
		s.logger.Debug("invoice invalidated", zap.Int64("user_id", userID))
	}
}

// ExpireInvoices drops pending and approved invoices issued more than maxAge
// before now and returns how many were dropped. A later pre-checkout or
// settlement for them is rejected.
func (s *Service) ExpireInvoices(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for userID, inv := range s.invoices {
		if now.Sub(inv.IssuedAt) > maxAge {
			delete(s.invoices, userID)
			expired++
		}
	}
	for payload, inv := range s.approved {
		if now.Sub(inv.IssuedAt) > maxAge {
			delete(s.approved, payload)
			expired++
		}
	}
	if expired > 0 {
		s.logger.Info("expired invoices", zap.Int("count", expired))
	}
	return expired
}

// ValidatePreCheckout accepts the query only if it matches the cached invoice
// exactly. A mismatch is rejected with shared.ErrPriceMismatch. An accepted
// invoice is held for settlement even if the cart changes afterwards.
func (s *Service) ValidatePreCheckout(_ context.Context, q payment.PreCheckoutQuery) error {
	invoice, ok := s.PendingInvoice(q.UserID)
	if !ok {
		return shared.NewDomainError(shared.CodeInvalidState, "No pending invoice")
	}
	if err := invoice.Check(q.Payload, q.Currency, q.TotalAmount); err != nil {
		s.logger.Warn("pre-checkout rejected",
			zap.Int64("user_id", q.UserID),
			zap.Int64("reported_total", q.TotalAmount),
			zap.Int64("invoice_total", invoice.TotalAmount()),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.approved[invoice.Payload] = invoice
	s.mu.Unlock()
	return nil
}

// invoiceFor finds the invoice a payment refers to: an approved one first,
// then the user's pending invoice when its payload matches.
func (s *Service) invoiceFor(p payment.SuccessfulPayment) (*payment.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.approved[p.Payload]; ok && inv.UserID == p.UserID {
		return inv, true
	}
	if inv, ok := s.invoices[p.UserID]; ok && inv.Payload == p.Payload {
		return inv, true
	}
	return nil, false
}

// consume forgets every cached copy of a settled invoice
func (s *Service) consume(invoice *payment.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.approved, invoice.Payload)
	if pending, ok := s.invoices[invoice.UserID]; ok && pending.Payload == invoice.Payload {
		delete(s.invoices, invoice.UserID)
	}
}

// Settle commits a successful payment. The order holds the invoiced lines
// and only the invoiced quantities leave the cart, so lines added after the
// invoice stay there unpaid. A payment whose payload, currency or total does
// not match its invoice records nothing. A provider charge id already settled
// yields shared.ErrAlreadyProcessed.
func (s *Service) Settle(ctx context.Context, p payment.SuccessfulPayment) (*trade.Order, error) {
	key := "payment:" + p.ProviderChargeID

	var order *trade.Order
	err := s.carts.Update(ctx, p.UserID, cart.ChangeCheckedOut, func(c *cart.ShoppingCart) error {
		if p.ProviderChargeID != "" && s.idempotency != nil {
			done, err := s.idempotency.IsProcessed(ctx, key)
			if err != nil {
				return err
			}
			if done {
				return shared.ErrAlreadyProcessed
			}
		}

		invoice, ok := s.invoiceFor(p)
		if !ok {
			s.logger.Error("payment matches no invoice",
				zap.Int64("user_id", p.UserID),
				zap.String("payload", p.Payload),
				zap.String("charge_id", p.ProviderChargeID),
				zap.Int64("total_amount", p.TotalAmount),
			)
			return shared.NewDomainError(shared.CodeInvalidState, "No invoice matches the payment")
		}
		if err := invoice.Check(p.Payload, p.Currency, p.TotalAmount); err != nil {
			s.logger.Error("payment disagrees with its invoice",
				zap.Int64("user_id", p.UserID),
				zap.String("charge_id", p.ProviderChargeID),
				zap.String("currency", string(p.Currency)),
				zap.Int64("total_amount", p.TotalAmount),
				zap.Int64("invoice_total", invoice.TotalAmount()),
				zap.Error(err),
			)
			return err
		}

		var err error
		order, err = trade.NewOrder(p.UserID, invoice.Items, invoice.Currency, p.ProviderChargeID)
		if err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}
		if p.ProviderChargeID != "" && s.idempotency != nil {
			if _, err := s.idempotency.MarkProcessed(ctx, key, s.config.SettlementTTL); err != nil {
				s.logger.Error("failed to record settled charge", zap.String("charge_id", p.ProviderChargeID), zap.Error(err))
			}
		}

		c.Deduct(invoice.Items)
		s.consume(invoice)
		return nil
	})
	if err != nil {
		if !errors.Is(err, shared.ErrAlreadyProcessed) {
			s.logger.Error("settlement failed", zap.Int64("user_id", p.UserID), zap.Error(err))
		}
		return nil, err
	}

	if err := s.publisher.Publish(ctx, trade.NewOrderPlacedEvent(order)); err != nil {
		s.logger.Error("failed to publish order placed event",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("payment settled",
		zap.Int64("user_id", p.UserID),
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.TotalOrderPrice().String()),
	)
	return order, nil
}

// Orders returns the settled orders of a user
func (s *Service) Orders(ctx context.Context, userID int64) ([]trade.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// CountOrders counts the settled orders of a user
func (s *Service) CountOrders(ctx context.Context, userID int64) (int, error) {
	return s.orders.CountByUser(ctx, userID)
}
