// Package telemetry exports traces, metrics and logs over OTLP/gRPC and
// optionally streams continuous profiles to Pyroscope.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported on every exported resource
const ServiceVersion = "1.0.0"

// DefaultMetricsInterval is the export period used when none is configured
const DefaultMetricsInterval = 60 * time.Second

const flushTimeout = 10 * time.Second

// Config holds telemetry configuration shared by all three signal pipelines.
// A disabled Config yields inert providers that fall back to the otel globals.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
}

func (c Config) exportInterval() time.Duration {
	if c.MetricsInterval <= 0 {
		return DefaultMetricsInterval
	}
	return c.MetricsInterval
}

func (c Config) resource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(c.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	return res, nil
}

// flush shuts a provider down within flushTimeout. signal names the pipeline
// in errors and logs.
func flush(ctx context.Context, signal string, shutdown func(context.Context) error, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Telemetry flush failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", signal, err)
	}
	log.Debug("Telemetry flushed", zap.String("signal", signal))
	return nil
}
