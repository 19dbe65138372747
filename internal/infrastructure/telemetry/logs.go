package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerProvider ships zap entries to the collector through the otelzap bridge
type LoggerProvider struct {
	sdk     *sdklog.LoggerProvider
	logger  *zap.Logger
	service string
}

// NewLoggerProvider sets up batched OTLP log export. Disabled providers are
// inert: Core is nil and Attach is the identity.
func NewLoggerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{logger: logger, service: cfg.ServiceName}
	if !cfg.Enabled {
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	lp.sdk = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.sdk)
	return lp, nil
}

// Core returns the exporting zap core, nil when disabled
func (lp *LoggerProvider) Core() zapcore.Core {
	if lp.sdk == nil {
		return nil
	}
	return otelzap.NewCore(lp.service, otelzap.WithLoggerProvider(lp.sdk))
}

// Attach tees every entry of l into the exporting core
func (lp *LoggerProvider) Attach(l *zap.Logger) *zap.Logger {
	export := lp.Core()
	if export == nil {
		return l
	}
	return l.WithOptions(zap.WrapCore(func(local zapcore.Core) zapcore.Core {
		return zapcore.NewTee(local, export)
	}))
}

// Shutdown exports buffered records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.sdk == nil {
		return nil
	}
	return flush(ctx, "logger", lp.sdk.Shutdown, lp.logger)
}
