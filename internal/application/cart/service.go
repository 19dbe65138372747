package cart

import (
	"context"
	"sync"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service owns the carts of all users. Mutations for one user are
// serialized; different users never contend.
type Service struct {
	products  cart.ProductSource
	publisher shared.EventPublisher
	logger    *zap.Logger

	locks *appshared.KeyedMutex
	mu    sync.RWMutex
	carts map[int64]*cart.ShoppingCart
}

// NewService creates a new cart Service
func NewService(products cart.ProductSource, publisher shared.EventPublisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = shared.NopEventPublisher{}
	}
	return &Service{
		products:  products,
		publisher: publisher,
		logger:    logger,
		locks:     appshared.NewKeyedMutex(),
		carts:     make(map[int64]*cart.ShoppingCart),
	}
}

// cartFor returns the user's cart, creating it on first access
func (s *Service) cartFor(userID int64) *cart.ShoppingCart {
	s.mu.RLock()
	c, ok := s.carts[userID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.carts[userID]; !ok {
		c = cart.NewShoppingCart(userID)
		s.carts[userID] = c
	}
	return c
}

// Get returns a copy of the user's cart
func (s *Service) Get(_ context.Context, userID int64) *cart.ShoppingCart {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.cartFor(userID).Clone()
}

// AddProduct adds quantity units of a product line to the user's cart
func (s *Service) AddProduct(ctx context.Context, userID, productID int64, variantID *int64, quantity int) (cart.Item, error) {
	unlock := s.locks.Lock(userID)
	c := s.cartFor(userID)
	item, err := c.AddProduct(ctx, s.products, productID, variantID, quantity)
	var event *cart.CartChangedEvent
	if err == nil {
		event = cart.NewCartChangedEvent(c, cart.ChangeAdded, productID)
	}
	unlock()

	if err != nil {
		s.logger.Warn("add to cart failed",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return cart.Item{}, err
	}
	s.publish(ctx, event)
	return item, nil
}

// RemoveProduct removes quantity units from a line; see cart.ShoppingCart.RemoveProduct
func (s *Service) RemoveProduct(ctx context.Context, userID, productID int64, variantID *int64, quantity int) (*cart.Item, error) {
	unlock := s.locks.Lock(userID)
	c := s.cartFor(userID)
	item, err := c.RemoveProduct(productID, variantID, quantity)
	var event *cart.CartChangedEvent
	if err == nil {
		reason := cart.ChangeRemoved
		if item == nil {
			reason = cart.ChangeDeleted
		}
		event = cart.NewCartChangedEvent(c, reason, productID)
	}
	unlock()

	if err != nil {
		return nil, err
	}
	s.publish(ctx, event)
	return item, nil
}

// RemoveItem deletes a whole line and reports whether it existed
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64, variantID *int64) bool {
	unlock := s.locks.Lock(userID)
	c := s.cartFor(userID)
	removed := c.RemoveItem(productID, variantID)
	var event *cart.CartChangedEvent
	if removed {
		event = cart.NewCartChangedEvent(c, cart.ChangeDeleted, productID)
	}
	unlock()

	if removed {
		s.publish(ctx, event)
	}
	return removed
}

// Clear empties the user's cart
func (s *Service) Clear(ctx context.Context, userID int64) {
	unlock := s.locks.Lock(userID)
	c := s.cartFor(userID)
	c.Clear()
	event := cart.NewCartChangedEvent(c, cart.ChangeCleared, 0)
	unlock()

	s.publish(ctx, event)
}

// Update runs fn with exclusive access to the user's cart. A CartChanged
// event with reason is published when fn succeeds.
func (s *Service) Update(ctx context.Context, userID int64, reason cart.ChangeReason, fn func(c *cart.ShoppingCart) error) error {
	unlock := s.locks.Lock(userID)
	c := s.cartFor(userID)
	err := fn(c)
	var event *cart.CartChangedEvent
	if err == nil {
		event = cart.NewCartChangedEvent(c, reason, 0)
	}
	unlock()

	if err != nil {
		return err
	}
	s.publish(ctx, event)
	return nil
}

func (s *Service) publish(ctx context.Context, event *cart.CartChangedEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish cart event",
			zap.Int64("user_id", event.UserID),
			zap.Error(err),
		)
	}
}
