package telemetry

import (
	"context"
	"fmt"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracerProvider owns the span pipeline. Its zero provider means disabled.
type TracerProvider struct {
	sdk    *sdktrace.TracerProvider
	logger *zap.Logger
	cfg    Config
}

// NewTracerProvider installs a batching OTLP span exporter as the global
// tracer provider, along with W3C trace-context and baggage propagation.
func NewTracerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*TracerProvider, error) {
	tp := &TracerProvider{logger: logger, cfg: cfg}
	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return tp, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	tp.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplingRatio)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp.sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing enabled",
		zap.String("endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

// newSampler respects an incoming sampling decision and samples new
// traces by ratio.
func newSampler(ratio float64) sdktrace.Sampler {
	root := sdktrace.TraceIDRatioBased(ratio)
	if ratio >= 1 {
		root = sdktrace.AlwaysSample()
	} else if ratio <= 0 {
		root = sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(root)
}

// EnableSpanProfiles labels CPU samples with the active span id so profiles
// can be filtered per trace. The profiler must already be running.
func (tp *TracerProvider) EnableSpanProfiles() {
	if tp.sdk == nil {
		return
	}
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.sdk))
	tp.logger.Info("Span profiles enabled", zap.String("service_name", tp.cfg.ServiceName))
}

// Shutdown exports buffered spans
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.sdk == nil {
		return nil
	}
	return flush(ctx, "tracer", tp.sdk.Shutdown, tp.logger)
}

// Tracer returns a named tracer, or the global one when disabled
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if tp.sdk == nil {
		return otel.Tracer(name, opts...)
	}
	return tp.sdk.Tracer(name, opts...)
}

// IsEnabled returns whether spans are exported
func (tp *TracerProvider) IsEnabled() bool {
	return tp.sdk != nil
}
