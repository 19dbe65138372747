package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPaid, OrderStatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return s == OrderStatusPaid && target == OrderStatusDelivered
}

// OrderLine snapshots one cart line at commit time
type OrderLine struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	VariantID    *int64          `json:"variant_id,omitempty"`
	VariantTitle string          `json:"variant_title,omitempty"`
}

// TotalLinePrice returns quantity x unit price x (1 - discount)
func (l OrderLine) TotalLinePrice() decimal.Decimal {
	return valueobject.LineTotal(l.UnitPrice, l.Quantity, l.Discount)
}

// Order is a settled purchase
type Order struct {
	ID               uuid.UUID            `json:"id"`
	UserID           int64                `json:"user_id"`
	Lines            []OrderLine          `json:"lines"`
	Currency         valueobject.Currency `json:"currency"`
	Status           OrderStatus          `json:"status"`
	IsPaid           bool                 `json:"is_paid"`
	IsDelivered      bool                 `json:"is_delivered"`
	ProviderChargeID string               `json:"provider_charge_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// NewOrderFromCart snapshots the cart lines into a paid order.
// The cart itself is not modified.
func NewOrderFromCart(c *cart.ShoppingCart, currency valueobject.Currency, providerChargeID string) (*Order, error) {
	return NewOrder(c.UserID(), c.Items(), currency, providerChargeID)
}

// NewOrder builds a paid order from priced cart lines
func NewOrder(userID int64, items []cart.Item, currency valueobject.Currency, providerChargeID string) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{
			ProductID:    it.ProductID,
			ProductName:  it.Name,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			Discount:     it.Discount,
			VariantID:    it.VariantID,
			VariantTitle: it.VariantTitle,
		})
	}
	now := time.Now()
	return &Order{
		ID:               uuid.New(),
		UserID:           userID,
		Lines:            lines,
		Currency:         currency,
		Status:           OrderStatusPaid,
		IsPaid:           true,
		ProviderChargeID: providerChargeID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// TotalOrderPrice sums the line totals
func (o *Order) TotalOrderPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.TotalLinePrice())
	}
	return total
}

// NumProducts returns the sum of quantities
func (o *Order) NumProducts() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// MarkDelivered moves a paid order to delivered
func (o *Order) MarkDelivered() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewDomainError(shared.CodeInvalidState, "Only paid orders can be delivered")
	}
	o.Status = OrderStatusDelivered
	o.IsDelivered = true
	o.UpdatedAt = time.Now()
	return nil
}

// ShortID returns the first block of the order id, for display
func (o *Order) ShortID() string {
	return o.ID.String()[:8]
}
