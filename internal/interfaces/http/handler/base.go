// Package handler implements the storefront HTTP endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler holds the response helpers shared by every handler
type BaseHandler struct{}

// Success writes data in the success envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta writes a page of data with its pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Error writes the error envelope, tagged with the request id
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// HandleError reports err to the client. Domain errors keep their code and
// message; a blown deadline is a 504. Anything else is logged and hidden
// behind a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeTimeout, "The request timed out")
		return
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// withUserID tags the request logger context with the acting user
func withUserID(c *gin.Context, userID int64) {
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID))
}
