package cart

import (
	"strconv"

	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeCart is the aggregate type of cart events
const AggregateTypeCart = "Cart"

// EventTypeCartChanged is published after any cart mutation
const EventTypeCartChanged = "CartChanged"

// ChangeReason describes the mutation that produced a CartChanged event
type ChangeReason string

const (
	ChangeAdded      ChangeReason = "added"
	ChangeRemoved    ChangeReason = "removed"
	ChangeDeleted    ChangeReason = "deleted"
	ChangeCleared    ChangeReason = "cleared"
	ChangeCheckedOut ChangeReason = "checked_out"
)

// CartChangedEvent signals that the lines of a cart changed
type CartChangedEvent struct {
	shared.BaseDomainEvent
	UserID      int64        `json:"user_id"`
	Reason      ChangeReason `json:"reason"`
	ProductID   int64        `json:"product_id,omitempty"`
	NumProducts int          `json:"num_products"`
}

// NewCartChangedEvent creates a CartChangedEvent for the cart's current state
func NewCartChangedEvent(c *ShoppingCart, reason ChangeReason, productID int64) *CartChangedEvent {
	return &CartChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartChanged, AggregateTypeCart, strconv.FormatInt(c.UserID(), 10)),
		UserID:          c.UserID(),
		Reason:          reason,
		ProductID:       productID,
		NumProducts:     c.NumProducts(),
	}
}
