package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// UntracedPaths get no server span, e.g. health probes
	UntracedPaths []string
}

// Tracing starts a server span per request through otelgin. Disabled
// tracing is a pass-through.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var opts []otelgin.Option
	if len(cfg.UntracedPaths) > 0 {
		skip := make(map[string]bool, len(cfg.UntracedPaths))
		for _, p := range cfg.UntracedPaths {
			skip[p] = true
		}
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			return !skip[r.URL.Path]
		}))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// TracingAttributeInjector tags the server span with the request id and the
// authenticated gateway. It must run after RequestID and GatewayAuth.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			var attrs []attribute.KeyValue
			if id := GetRequestID(c); id != "" {
				attrs = append(attrs, attribute.String("request_id", id))
			}
			if gw := GetGateway(c); gw != "" {
				attrs = append(attrs, attribute.String("gateway", gw))
			}
			span.SetAttributes(attrs...)
		}
		c.Next()
	}
}

// SpanErrorMarker flags the server span as failed on a 5xx response
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		status := c.Writer.Status()
		if status < http.StatusInternalServerError {
			return
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
