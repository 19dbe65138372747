package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository stores settled orders
type OrderRepository interface {
	// Save creates or updates an order
	Save(ctx context.Context, order *Order) error

	// FindByID finds an order by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser returns the orders of a user, newest first
	FindByUser(ctx context.Context, userID int64) ([]Order, error)

	// CountByUser counts the orders of a user
	CountByUser(ctx context.Context, userID int64) (int, error)
}
