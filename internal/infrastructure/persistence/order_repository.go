package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// MemoryOrderRepository keeps orders in process memory
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*trade.Order
}

// NewMemoryOrderRepository creates an empty repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[uuid.UUID]*trade.Order)}
}

// Save creates or updates an order
func (r *MemoryOrderRepository) Save(_ context.Context, order *trade.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Order must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// FindByID finds an order by its ID
func (r *MemoryOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, orderNotFound(id)
	}
	return cloneOrder(o), nil
}

// FindByUser returns the orders of a user, newest first
func (r *MemoryOrderRepository) FindByUser(_ context.Context, userID int64) ([]trade.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]trade.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountByUser counts the orders of a user
func (r *MemoryOrderRepository) CountByUser(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, o := range r.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func cloneOrder(o *trade.Order) *trade.Order {
	c := *o
	c.Lines = append([]trade.OrderLine(nil), o.Lines...)
	return &c
}

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save creates or updates an order, replacing its lines
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Order must have an id")
	}
	var m models.OrderModel
	m.FromDomain(order)
	lines := m.Lines
	m.Lines = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(&m).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", m.ID).Delete(&models.OrderLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var m models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound(id)
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByUser returns the orders of a user, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID int64) ([]trade.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]trade.Order, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// CountByUser counts the orders of a user
func (r *GormOrderRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderNotFound(id uuid.UUID) error {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Order %s not found", id))
}

var (
	_ trade.OrderRepository = (*MemoryOrderRepository)(nil)
	_ trade.OrderRepository = (*GormOrderRepository)(nil)
)
