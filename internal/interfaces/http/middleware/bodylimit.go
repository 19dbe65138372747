package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. A declared Content-Length
// is refused up front with 413; chunked bodies are cut off while the handler
// reads them, which surfaces as a binding error.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength <= maxBytes {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestTooLarge,
			"Request body exceeds maximum allowed size",
			GetRequestID(c),
		))
	}
}
