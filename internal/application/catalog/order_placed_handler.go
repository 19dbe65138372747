package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderPlacedHandler decrements catalog stock for every settled order line.
// Digital goods are never decremented.
type OrderPlacedHandler struct {
	provider catalog.Provider
	stock    catalog.StockKeeper
	logger   *zap.Logger
}

// NewOrderPlacedHandler creates a new handler for order placed events
func NewOrderPlacedHandler(provider catalog.Provider, stock catalog.StockKeeper, logger *zap.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		provider: provider,
		stock:    stock,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderPlaced}
}

// Handle processes an OrderPlacedEvent
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*trade.OrderPlacedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeOrderPlaced),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeOrderPlaced, event.EventType())
	}

	var errs []error
	for _, line := range placed.Lines {
		product, err := h.provider.GetProduct(ctx, line.ProductID)
		if err != nil {
			errs = append(errs, fmt.Errorf("product %d: %w", line.ProductID, err))
			continue
		}
		if product.IsDigital {
			continue
		}

		err = h.stock.DecrementStock(ctx, line.ProductID, line.VariantID, line.Quantity)
		switch {
		case errors.Is(err, shared.ErrInsufficientStock):
			// The sale already happened; stock stays clamped at zero.
			h.logger.Warn("stock oversold",
				zap.String("order_id", placed.OrderID),
				zap.Int64("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
			)
		case err != nil:
			errs = append(errs, fmt.Errorf("decrement product %d: %w", line.ProductID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	h.logger.Info("stock updated for order",
		zap.String("order_id", placed.OrderID),
		zap.Int("lines", len(placed.Lines)),
	)
	return nil
}
