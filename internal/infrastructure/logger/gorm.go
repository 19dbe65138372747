package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts zap to gorm's logger.Interface. Statement logs carry
// the request and trace ids found on the context.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger wraps l. A zero slowThreshold turns slow-query warnings off.
func NewGormLogger(l *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{logger: l.Named("gorm"), level: level, slowThreshold: slowThreshold}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, threshold gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < threshold {
		return
	}
	if ce := Enrich(ctx, l.logger).Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write()
	}
}

// Trace logs one executed statement. gorm.ErrRecordNotFound is skipped:
// repositories turn it into a domain not-found error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	var (
		msg = "sql query"
		lvl = zapcore.DebugLevel
	)
	switch {
	case failed && l.level >= gormlogger.Error:
		msg, lvl = "sql query failed", zapcore.ErrorLevel
	case slow && l.level >= gormlogger.Warn:
		msg, lvl = "slow sql query", zapcore.WarnLevel
	case l.level < gormlogger.Info:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if lvl == zapcore.ErrorLevel {
		fields = append(fields, zap.Error(err))
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
	}
	if ce := Enrich(ctx, l.logger).Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

// MapGormLogLevel picks the gorm level for an application log level.
// Statements are only logged in debug and info.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}

var _ gormlogger.Interface = (*GormLogger)(nil)
