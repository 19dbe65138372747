package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestUserIDRoundTrip(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	ctx := WithUserID(context.Background(), 42)
	id, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestL_AddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, 7)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	L(ctx).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, int64(7), fields["user_id"])
		assert.Equal(t, traceID.String(), fields["trace_id"])
		assert.Equal(t, spanID.String(), fields["span_id"])
	}
}

func TestEnrich_NoFields(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, Enrich(context.Background(), base))
}
