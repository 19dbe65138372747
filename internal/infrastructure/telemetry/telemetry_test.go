package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func disabledConfig() Config {
	return Config{Enabled: false, ServiceName: "storefront-test"}
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	tp, err := NewTracerProvider(ctx, disabledConfig(), log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, disabledConfig(), log)
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, disabledConfig(), log)
	require.NoError(t, err)
	assert.Nil(t, lp.Core())
	assert.Same(t, log, lp.Attach(log))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "storefront.test", attribute.Int64("user_id", 7))
	EndSpan(span, errors.New("boom"))

	_, ok := StartSpan(context.Background(), "storefront.ok")
	EndSpan(ok, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "storefront.test", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("user_id", 7))
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	log := zap.NewNop()
	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, log))
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, log))
	_, registered := db.Config.Plugins["otelgorm"]
	assert.True(t, registered)
}

func TestConfig_ExportInterval(t *testing.T) {
	assert.Equal(t, DefaultMetricsInterval, Config{}.exportInterval())
	assert.Equal(t, 5*time.Second, Config{MetricsInterval: 5 * time.Second}.exportInterval())
}

func TestConfig_Resource(t *testing.T) {
	res, err := Config{ServiceName: "storefront-test"}.resource()
	require.NoError(t, err)
	assert.Contains(t, res.Attributes(), attribute.String("service.name", "storefront-test"))
	assert.Contains(t, res.Attributes(), attribute.String("service.version", ServiceVersion))
}

func TestFlush(t *testing.T) {
	log := zaptest.NewLogger(t)
	require.NoError(t, flush(context.Background(), "meter", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}, log))

	err := flush(context.Background(), "tracer", func(context.Context) error {
		return errors.New("collector gone")
	}, log)
	assert.ErrorContains(t, err, "shutdown tracer provider: collector gone")
}
