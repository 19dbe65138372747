package trade

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type of order events
const AggregateTypeOrder = "Order"

// EventTypeOrderPlaced is published once per settled payment
const EventTypeOrderPlaced = "OrderPlaced"

// OrderPlacedEvent carries the settled lines so that stock can be adjusted
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID string          `json:"order_id"`
	UserID  int64           `json:"user_id"`
	Lines   []OrderLine     `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID.String()),
		OrderID:         o.ID.String(),
		UserID:          o.UserID,
		Lines:           append([]OrderLine(nil), o.Lines...),
		Total:           o.TotalOrderPrice(),
	}
}
