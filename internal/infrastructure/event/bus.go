// Package event delivers domain events to in-process handlers.
package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/storefront/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/storefront/backend/internal/infrastructure/event"

// SyncBus runs handlers on the publisher's goroutine, in subscription
// order. Handler errors and panics are logged and counted; they never
// reach the publisher or block the remaining handlers.
type SyncBus struct {
	routes   *HandlerRegistry
	logger   *zap.Logger
	tracer   trace.Tracer
	closed   atomic.Bool
	failures atomic.Int64
}

func NewSyncBus(logger *zap.Logger) *SyncBus {
	return &SyncBus{
		routes: NewHandlerRegistry(),
		logger: logger.Named("events"),
		tracer: otel.Tracer(tracerName),
	}
}

// Publish always returns nil. Events published while stopped are dropped.
func (b *SyncBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.closed.Load() {
		b.logger.Warn("Dropping events published after stop", zap.Int("count", len(events)))
		return nil
	}
	for _, e := range events {
		b.fanOut(ctx, e)
	}
	return nil
}

// fanOut delivers one event under its own span.
func (b *SyncBus) fanOut(ctx context.Context, e shared.DomainEvent) {
	handlers := b.routes.For(e.EventType())
	ctx, span := b.tracer.Start(ctx, "event "+e.EventType(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("event.id", e.EventID().String()),
			attribute.String("event.aggregate_id", e.AggregateID()),
			attribute.Int("event.handlers", len(handlers)),
		),
	)
	defer span.End()

	var failed int
	for _, h := range handlers {
		if err := safeHandle(ctx, h, e); err != nil {
			failed++
			span.RecordError(err)
			b.logger.Error("Event handler failed",
				zap.String("event_type", e.EventType()),
				zap.Stringer("event_id", e.EventID()),
				zap.String("aggregate_id", e.AggregateID()),
				zap.Error(err),
			)
		}
	}
	if failed == 0 {
		return
	}
	b.failures.Add(int64(failed))
	span.SetStatus(codes.Error, fmt.Sprintf("%d of %d handlers failed", failed, len(handlers)))
}

// safeHandle turns a handler panic into an error.
func safeHandle(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return h.Handle(ctx, e)
}

// Subscribe routes eventTypes to h. With no types given, h.EventTypes()
// decides, and an empty answer there means every event.
func (b *SyncBus) Subscribe(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = h.EventTypes()
	}
	b.routes.Register(h, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *SyncBus) Unsubscribe(h shared.EventHandler) {
	b.routes.Unregister(h)
}

func (b *SyncBus) Start(context.Context) error {
	b.closed.Store(false)
	b.logger.Info("Event bus accepting events", zap.Int("handlers", b.routes.Len()))
	return nil
}

// Stop makes later Publish calls drop their events; deliveries already
// running finish.
func (b *SyncBus) Stop(context.Context) error {
	b.closed.Store(true)
	b.logger.Info("Event bus stopped", zap.Int64("handler_failures", b.failures.Load()))
	return nil
}

// Failures counts failed handler invocations since construction.
func (b *SyncBus) Failures() int64 {
	return b.failures.Load()
}

var _ shared.EventBus = (*SyncBus)(nil)
