package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider owns the periodic metric export pipeline
type MeterProvider struct {
	sdk    *sdkmetric.MeterProvider
	logger *zap.Logger
}

// NewMeterProvider pushes metrics to the collector every
// Config.MetricsInterval. When disabled, Meter hands out global meters.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.exportInterval()))
	mp.sdk = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp.sdk)

	logger.Info("Metrics enabled",
		zap.String("endpoint", cfg.CollectorEndpoint),
		zap.Duration("interval", cfg.exportInterval()),
	)
	return mp, nil
}

// Shutdown performs a final collection and export
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.sdk == nil {
		return nil
	}
	return flush(ctx, "meter", mp.sdk.Shutdown, mp.logger)
}

// Meter returns a named meter
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.sdk == nil {
		return otel.Meter(name, opts...)
	}
	return mp.sdk.Meter(name, opts...)
}
