// Package middleware provides HTTP middleware for the storefront API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Request id keys
const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// MaxRequestIDLength bounds request ids taken from headers
const MaxRequestIDLength = 128

// RequestID reuses a sane incoming X-Request-ID or mints a UUID, echoes it
// on the response and adds it to the request logger context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !acceptableRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// acceptableRequestID rejects empty, oversized or non-printable ids so they
// cannot forge log lines.
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the id assigned by RequestID, or "" when it did not run
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
