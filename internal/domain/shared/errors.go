package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors built with NewDomainError match the sentinels below via errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidOperation     = "INVALID_OPERATION"
	CodeInvalidState         = "INVALID_STATE"
	CodePriceMismatch        = "PRICE_MISMATCH"
	CodeCollaboratorFailure  = "COLLABORATOR_FAILURE"
	CodeEmptyCart            = "EMPTY_CART"
	CodeNotImplemented       = "NOT_IMPLEMENTED"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeMalformedCallback    = "MALFORMED_CALLBACK"
	CodeFeatureNotConfigured = "FEATURE_NOT_CONFIGURED"
	CodeAlreadyProcessed     = "ALREADY_PROCESSED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidOperation    = NewDomainError(CodeInvalidOperation, "Operation is not valid for this resource")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrPriceMismatch       = NewDomainError(CodePriceMismatch, "Price mismatch")
	ErrCollaboratorFailure = NewDomainError(CodeCollaboratorFailure, "External collaborator failed")
	ErrEmptyCart           = NewDomainError(CodeEmptyCart, "Cart is empty")
	ErrNotImplemented      = NewDomainError(CodeNotImplemented, "Operation not implemented")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrMalformedCallback   = NewDomainError(CodeMalformedCallback, "Malformed callback payload")
	ErrNotConfigured       = NewDomainError(CodeFeatureNotConfigured, "Feature is not configured")
	ErrAlreadyProcessed    = NewDomainError(CodeAlreadyProcessed, "Request was already processed")
)
