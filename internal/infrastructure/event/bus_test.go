package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Cart", "42")}
}

type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestSyncBus_Publish(t *testing.T) {
	bus := NewSyncBus(zap.NewNop())
	handler := newRecordingHandler("CartChanged")
	bus.Subscribe(handler)

	event := newTestEvent("CartChanged")
	require.NoError(t, bus.Publish(context.Background(), event, newTestEvent("CartChanged")))

	assert.Equal(t, 2, handler.count())
	assert.Equal(t, event, handler.handled[0])
}

func TestSyncBus_RoutesByType(t *testing.T) {
	bus := NewSyncBus(zap.NewNop())
	carts := newRecordingHandler("CartChanged")
	orders := newRecordingHandler("OrderPlaced")
	all := newRecordingHandler()
	bus.Subscribe(carts)
	bus.Subscribe(orders)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 0, carts.count())
	assert.Equal(t, 1, orders.count())
	assert.Equal(t, 1, all.count())
}

func TestSyncBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewSyncBus(zap.NewNop())
	failing := newRecordingHandler("OrderPlaced")
	failing.err = errors.New("stock store down")
	panicking := newRecordingHandler("OrderPlaced")
	panicking.panics = true
	healthy := newRecordingHandler("OrderPlaced")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, int64(2), bus.Failures())
}

func TestSyncBus_SpanPerEvent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	bus := NewSyncBus(zap.NewNop())
	failing := newRecordingHandler("OrderPlaced")
	failing.err = errors.New("stock store down")
	bus.Subscribe(failing)
	bus.Subscribe(newRecordingHandler("CartChanged"))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced"), newTestEvent("CartChanged")))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "event OrderPlaced", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("event.aggregate_id", "42"))
	assert.Equal(t, "event CartChanged", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}

func TestSyncBus_Unsubscribe(t *testing.T) {
	bus := NewSyncBus(zap.NewNop())
	handler := newRecordingHandler("CartChanged")
	bus.Subscribe(handler)
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("CartChanged"))
	assert.Equal(t, 1, handler.count())

	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("CartChanged"))
	assert.Equal(t, 1, handler.count())
}

func TestSyncBus_StopDropsEvents(t *testing.T) {
	bus := NewSyncBus(zap.NewNop())
	handler := newRecordingHandler("CartChanged")
	bus.Subscribe(handler)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("CartChanged")))
	assert.Equal(t, 0, handler.count())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("CartChanged")))
	assert.Equal(t, 1, handler.count())
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	a := newRecordingHandler()
	b := newRecordingHandler()

	r.Register(a, "CartChanged", "OrderPlaced")
	r.Register(b)

	assert.Len(t, r.For("CartChanged"), 2)
	assert.Len(t, r.For("Unknown"), 1)
	assert.Equal(t, 2, r.Len())

	r.Unregister(a)
	assert.Len(t, r.For("OrderPlaced"), 1)
	assert.Equal(t, 1, r.Len())
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := newRecordingHandler("OrderPlaced")
	config := shared.DefaultIdempotencyConfig()
	h := NewIdempotentHandler(inner, store, config, zap.NewNop())
	event := newTestEvent("OrderPlaced")
	key := "event:" + event.EventID().String()

	store.On("MarkProcessed", mock.Anything, key, config.TTL).Return(true, nil).Once()
	store.On("MarkProcessed", mock.Anything, key, config.TTL).Return(false, nil).Once()

	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 1, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 1, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"OrderPlaced"}, h.EventTypes())
	store.AssertExpectations(t)
}

func TestIdempotentHandler_StoreFailureStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := newRecordingHandler("OrderPlaced")
	inner.err = errors.New("failed")
	h := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	err := h.Handle(context.Background(), newTestEvent("OrderPlaced"))
	require.Error(t, err)
	assert.Equal(t, 1, inner.count())
	assert.Equal(t, int64(1), h.Stats().Failed)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := newRecordingHandler("OrderPlaced")
	h := NewIdempotentHandler(inner, store, shared.IdempotencyConfig{}, zap.NewNop())

	event := newTestEvent("OrderPlaced")
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 2, inner.count())
	store.AssertNotCalled(t, "MarkProcessed")
}
