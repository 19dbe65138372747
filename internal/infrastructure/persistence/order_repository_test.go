package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(userID int64, createdAt time.Time) *trade.Order {
	return &trade.Order{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: valueobject.USD,
		Status:   trade.OrderStatusPaid,
		IsPaid:   true,
		Lines: []trade.OrderLine{
			{ProductID: 1, ProductName: "Laptop", UnitPrice: decimal.NewFromInt(999), Quantity: 1, Discount: decimal.Zero},
			{ProductID: 3, ProductName: "T-shirt", UnitPrice: decimal.NewFromInt(15), Quantity: 2, Discount: decimal.RequireFromString("0.2"), VariantID: i64(1), VariantTitle: "S"},
		},
		ProviderChargeID: "charge-" + uuid.NewString(),
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestOrderRepositories(t *testing.T) {
	backends := map[string]func(t *testing.T) trade.OrderRepository{
		"memory": func(*testing.T) trade.OrderRepository { return NewMemoryOrderRepository() },
		"gorm": func(t *testing.T) trade.OrderRepository {
			return NewGormOrderRepository(newSQLiteDatabase(t).DB)
		},
	}

	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			older := newOrder(42, base)
			newer := newOrder(42, base.Add(time.Hour))
			other := newOrder(7, base)
			for _, o := range []*trade.Order{older, newer, other} {
				require.NoError(t, repo.Save(ctx, o))
			}

			t.Run("find by id keeps lines in order", func(t *testing.T) {
				got, err := repo.FindByID(ctx, older.ID)
				require.NoError(t, err)
				require.Len(t, got.Lines, 2)
				assert.Equal(t, "Laptop", got.Lines[0].ProductName)
				assert.Equal(t, "S", got.Lines[1].VariantTitle)
				assert.True(t, got.TotalOrderPrice().Equal(decimal.NewFromInt(1023)))
				assert.Equal(t, 3, got.NumProducts())
			})

			t.Run("find by user is newest first", func(t *testing.T) {
				orders, err := repo.FindByUser(ctx, 42)
				require.NoError(t, err)
				require.Len(t, orders, 2)
				assert.Equal(t, newer.ID, orders[0].ID)
				assert.Equal(t, older.ID, orders[1].ID)
			})

			t.Run("count by user", func(t *testing.T) {
				n, err := repo.CountByUser(ctx, 42)
				require.NoError(t, err)
				assert.Equal(t, 2, n)
				n, err = repo.CountByUser(ctx, 1000)
				require.NoError(t, err)
				assert.Equal(t, 0, n)
			})

			t.Run("save updates status", func(t *testing.T) {
				got, err := repo.FindByID(ctx, other.ID)
				require.NoError(t, err)
				require.NoError(t, got.MarkDelivered())
				require.NoError(t, repo.Save(ctx, got))

				again, err := repo.FindByID(ctx, other.ID)
				require.NoError(t, err)
				assert.Equal(t, trade.OrderStatusDelivered, again.Status)
				assert.True(t, again.IsDelivered)
				assert.Len(t, again.Lines, 2)
			})

			t.Run("unknown id", func(t *testing.T) {
				_, err := repo.FindByID(ctx, uuid.New())
				assert.ErrorIs(t, err, shared.ErrNotFound)
			})

			t.Run("rejects missing id", func(t *testing.T) {
				assert.ErrorIs(t, repo.Save(ctx, &trade.Order{}), shared.ErrInvalidInput)
			})
		})
	}
}
