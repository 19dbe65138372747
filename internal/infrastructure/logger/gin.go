package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLogOption configures GinMiddleware
type AccessLogOption func(*accessLog)

type accessLog struct {
	skip map[string]struct{}
}

// SkipPaths silences the access line for the given route paths. The context
// logger is still installed.
func SkipPaths(paths ...string) AccessLogOption {
	return func(a *accessLog) {
		for _, p := range paths {
			a.skip[p] = struct{}{}
		}
	}
}

// GinMiddleware installs logger in the request context, for L(ctx), and
// writes one access line per request at a level chosen by status class.
func GinMiddleware(logger *zap.Logger, opts ...AccessLogOption) gin.HandlerFunc {
	cfg := accessLog{skip: map[string]struct{}{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		began := time.Now()
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), logger))
		c.Next()

		route := c.FullPath()
		if _, quiet := cfg.skip[route]; quiet {
			return
		}
		status := c.Writer.Status()
		ce := L(c.Request.Context()).Check(accessLevel(status), "HTTP Request")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(began)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		ce.Write(fields...)
	}
}

func accessLevel(status int) zapcore.Level {
	if status >= http.StatusInternalServerError {
		return zapcore.ErrorLevel
	}
	if status >= http.StatusBadRequest {
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Recovery answers a panicking handler with 500 and logs the panic value
// with its stack.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			Enrich(c.Request.Context(), logger).Error("Panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", r),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatus(http.StatusInternalServerError)
		}()
		c.Next()
	}
}
