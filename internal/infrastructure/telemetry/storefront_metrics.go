package telemetry

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is given
var ErrMeterNil = errors.New("telemetry: meter is nil")

// StorefrontMetrics counts cart activity and settled orders. It subscribes to
// the event bus, so the domain code never calls it directly.
type StorefrontMetrics struct {
	cartChanges   metric.Int64Counter
	ordersPlaced  metric.Int64Counter
	itemsSold     metric.Int64Counter
	orderRevenue  metric.Float64Counter
	actionsServed metric.Int64Counter
}

// NewStorefrontMetrics creates the instruments on meter
func NewStorefrontMetrics(meter metric.Meter) (*StorefrontMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &StorefrontMetrics{}
	var err error
	if m.cartChanges, err = meter.Int64Counter("storefront.cart.changes",
		metric.WithDescription("Cart mutations by reason")); err != nil {
		return nil, err
	}
	if m.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Settled orders")); err != nil {
		return nil, err
	}
	if m.itemsSold, err = meter.Int64Counter("storefront.items.sold",
		metric.WithDescription("Units sold across settled orders")); err != nil {
		return nil, err
	}
	if m.orderRevenue, err = meter.Float64Counter("storefront.orders.revenue",
		metric.WithDescription("Settled order totals in major currency units")); err != nil {
		return nil, err
	}
	if m.actionsServed, err = meter.Int64Counter("storefront.actions",
		metric.WithDescription("User actions handled by kind and outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAction counts one handled user action
func (m *StorefrontMetrics) RecordAction(ctx context.Context, kind string, failed bool) {
	m.actionsServed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("failed", failed),
	))
}

// EventTypes implements shared.EventHandler
func (m *StorefrontMetrics) EventTypes() []string {
	return []string{cart.EventTypeCartChanged, trade.EventTypeOrderPlaced}
}

// Handle implements shared.EventHandler
func (m *StorefrontMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *cart.CartChangedEvent:
		m.cartChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(e.Reason))))
	case *trade.OrderPlacedEvent:
		units := 0
		for _, l := range e.Lines {
			units += l.Quantity
		}
		m.ordersPlaced.Add(ctx, 1)
		m.itemsSold.Add(ctx, int64(units))
		m.orderRevenue.Add(ctx, e.Total.InexactFloat64())
	}
	return nil
}

var _ shared.EventHandler = (*StorefrontMetrics)(nil)
