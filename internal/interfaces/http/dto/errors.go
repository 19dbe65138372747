package dto

import (
	"net/http"

	"github.com/storefront/backend/internal/domain/shared"
)

// API error codes, formatted ERR_<DESCRIPTION>
const (
	ErrCodeUnknown        = "ERR_UNKNOWN"
	ErrCodeInternal       = "ERR_INTERNAL"
	ErrCodeNotImplemented = "ERR_NOT_IMPLEMENTED"
	ErrCodeNotConfigured  = "ERR_FEATURE_NOT_CONFIGURED"
	ErrCodeUpstream       = "ERR_UPSTREAM"
	ErrCodeTimeout        = "ERR_TIMEOUT"

	ErrCodeValidation        = "ERR_VALIDATION"
	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput      = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON       = "ERR_INVALID_JSON"
	ErrCodeMalformedCallback = "ERR_MALFORMED_CALLBACK"
	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeAlreadyProcessed    = "ERR_ALREADY_PROCESSED"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInvalidOperation  = "ERR_INVALID_OPERATION"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodePriceMismatch     = "ERR_PRICE_MISMATCH"
	ErrCodeEmptyCart         = "ERR_EMPTY_CART"
)

// errorCode describes one API error code: the status it is served with and
// the domain code, if any, that maps onto it.
type errorCode struct {
	api    string
	status int
	domain string
}

var errorCodes = []errorCode{
	{ErrCodeUnknown, http.StatusInternalServerError, ""},
	{ErrCodeInternal, http.StatusInternalServerError, ""},
	{ErrCodeNotImplemented, http.StatusNotImplemented, shared.CodeNotImplemented},
	{ErrCodeNotConfigured, http.StatusServiceUnavailable, shared.CodeFeatureNotConfigured},
	{ErrCodeUpstream, http.StatusBadGateway, shared.CodeCollaboratorFailure},
	{ErrCodeTimeout, http.StatusGatewayTimeout, ""},

	{ErrCodeValidation, http.StatusBadRequest, ""},
	{ErrCodeBadRequest, http.StatusBadRequest, ""},
	{ErrCodeInvalidInput, http.StatusBadRequest, shared.CodeInvalidInput},
	{ErrCodeInvalidJSON, http.StatusBadRequest, ""},
	{ErrCodeMalformedCallback, http.StatusBadRequest, shared.CodeMalformedCallback},
	{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge, ""},

	{ErrCodeUnauthorized, http.StatusUnauthorized, ""},
	{ErrCodeTokenExpired, http.StatusUnauthorized, ""},
	{ErrCodeTokenInvalid, http.StatusUnauthorized, ""},
	{ErrCodeRateLimited, http.StatusTooManyRequests, ""},

	{ErrCodeNotFound, http.StatusNotFound, shared.CodeNotFound},
	{ErrCodeConflict, http.StatusConflict, ""},
	{ErrCodeConcurrencyConflict, http.StatusConflict, shared.CodeConcurrencyConflict},
	{ErrCodeAlreadyProcessed, http.StatusConflict, shared.CodeAlreadyProcessed},

	// business rule violations are well-formed requests the domain refused
	{ErrCodeInvalidState, http.StatusUnprocessableEntity, shared.CodeInvalidState},
	{ErrCodeInvalidOperation, http.StatusUnprocessableEntity, shared.CodeInvalidOperation},
	{ErrCodeInsufficientStock, http.StatusUnprocessableEntity, shared.CodeInsufficientStock},
	{ErrCodePriceMismatch, http.StatusUnprocessableEntity, shared.CodePriceMismatch},
	{ErrCodeEmptyCart, http.StatusUnprocessableEntity, shared.CodeEmptyCart},
}

var (
	statusByCode = make(map[string]int, len(errorCodes))
	apiByDomain  = make(map[string]string, len(errorCodes))
)

func init() {
	for _, ec := range errorCodes {
		statusByCode[ec.api] = ec.status
		if ec.domain != "" {
			apiByDomain[ec.domain] = ec.api
		}
	}
}

// GetHTTPStatus returns the status an API error code is served with, 500
// for codes it does not know.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode translates a domain error code to its API code. Other
// codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if api, ok := apiByDomain[code]; ok {
		return api
	}
	return code
}
