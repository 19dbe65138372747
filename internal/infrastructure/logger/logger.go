// Package logger builds the zap loggers used across the storefront and
// adapts them to gin, gorm and request contexts.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DefaultConfig logs info and above to stdout as colored console lines
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: defaultTimeFormat}
}

// New builds a logger with caller info and error stacktraces. Every entry is
// also written to each extra core, e.g. an OTLP bridge.
func New(cfg *Config, extra ...zapcore.Core) (*zap.Logger, error) {
	core, err := NewCore(cfg)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, extra...)...)
	}
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewCore builds the encoder and sink described by cfg
func NewCore(cfg *Config) (zapcore.Core, error) {
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return zapcore.NewCore(newEncoder(cfg.Format, cfg.TimeFormat), sink, ParseLevel(cfg.Level)), nil
}

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(name string) zapcore.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil || name == "" {
		return zapcore.InfoLevel
	}
	return level
}

func newEncoder(format, timeLayout string) zapcore.Encoder {
	if timeLayout == "" {
		timeLayout = defaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}
