package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
)

// OrderModel is the persistence model for a settled order
type OrderModel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CreatedAt        time.Time         `gorm:"not null"`
	UpdatedAt        time.Time         `gorm:"not null"`
	UserID           int64             `gorm:"not null;index"`
	Currency         string            `gorm:"type:varchar(3);not null"`
	Status           trade.OrderStatus `gorm:"type:varchar(20);not null;default:'PAID'"`
	IsPaid           bool              `gorm:"not null;default:false"`
	IsDelivered      bool              `gorm:"not null;default:false"`
	ProviderChargeID string            `gorm:"type:varchar(200);index"`
	Lines            []OrderLineModel  `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to a domain order
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		ID:               m.ID,
		UserID:           m.UserID,
		Currency:         valueobject.Currency(m.Currency),
		Status:           m.Status,
		IsPaid:           m.IsPaid,
		IsDelivered:      m.IsDelivered,
		ProviderChargeID: m.ProviderChargeID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Lines:            make([]trade.OrderLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		o.Lines[i] = l.ToDomain()
	}
	return o
}

// FromDomain populates the model from a domain order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.UserID = o.UserID
	m.Currency = string(o.Currency)
	m.Status = o.Status
	m.IsPaid = o.IsPaid
	m.IsDelivered = o.IsDelivered
	m.ProviderChargeID = o.ProviderChargeID
	m.Lines = make([]OrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i].FromDomain(o.ID, i, l)
	}
}

// OrderLineModel is one snapshotted cart line; Position keeps the cart order
type OrderLineModel struct {
	OrderID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position     int             `gorm:"primaryKey;autoIncrement:false"`
	ProductID    int64           `gorm:"not null;index"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity     int             `gorm:"not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0"`
	VariantID    *int64
	VariantTitle string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the model to a domain order line
func (m OrderLineModel) ToDomain() trade.OrderLine {
	return trade.OrderLine{
		ProductID:    m.ProductID,
		ProductName:  m.ProductName,
		UnitPrice:    m.UnitPrice,
		Quantity:     m.Quantity,
		Discount:     m.Discount,
		VariantID:    m.VariantID,
		VariantTitle: m.VariantTitle,
	}
}

// FromDomain populates the model from a domain order line
func (m *OrderLineModel) FromDomain(orderID uuid.UUID, position int, l trade.OrderLine) {
	m.OrderID = orderID
	m.Position = position
	m.ProductID = l.ProductID
	m.ProductName = l.ProductName
	m.UnitPrice = l.UnitPrice
	m.Quantity = l.Quantity
	m.Discount = l.Discount
	m.VariantID = l.VariantID
	m.VariantTitle = l.VariantTitle
}
