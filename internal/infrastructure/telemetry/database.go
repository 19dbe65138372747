package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled    bool
	LogFullSQL bool   // include query variables in spans
	DBSystem   string // postgresql, sqlite
}

// RegisterDBTracing installs the otelgorm plugin, so catalog and order
// queries become child spans of the request span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("install otelgorm: %w", err)
	}
	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
	)
	return nil
}

// ObserveDBPool reports connection pool gauges from stats on every metric
// collection. Unregister the returned registration on shutdown.
func ObserveDBPool(meter metric.Meter, dbSystem string, stats func() sql.DBStats) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	conns, err := meter.Int64ObservableGauge("storefront.db.connections",
		metric.WithDescription("Open pool connections by state"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("storefront.db.waits",
		metric.WithDescription("Times a caller waited for a free connection"))
	if err != nil {
		return nil, err
	}

	system := attribute.String("db.system", dbSystem)
	inUse := metric.WithAttributes(system, attribute.String("state", "in_use"))
	idle := metric.WithAttributes(system, attribute.String("state", "idle"))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(conns, int64(s.InUse), inUse)
		o.ObserveInt64(conns, int64(s.Idle), idle)
		o.ObserveInt64(waits, s.WaitCount, metric.WithAttributes(system))
		return nil
	}, conns, waits)
}
