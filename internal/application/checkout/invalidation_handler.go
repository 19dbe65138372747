package checkout

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// InvoiceInvalidationHandler drops a cached invoice whenever the cart it
// was computed from changes
type InvoiceInvalidationHandler struct {
	service *Service
}

// NewInvoiceInvalidationHandler creates the handler
func NewInvoiceInvalidationHandler(service *Service) *InvoiceInvalidationHandler {
	return &InvoiceInvalidationHandler{service: service}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceInvalidationHandler) EventTypes() []string {
	return []string{cart.EventTypeCartChanged}
}

// Handle processes a CartChangedEvent
func (h *InvoiceInvalidationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*cart.CartChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", cart.EventTypeCartChanged, event.EventType())
	}
	h.service.InvalidateInvoice(changed.UserID)
	return nil
}
