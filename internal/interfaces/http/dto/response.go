package dto

import "time"

// Response is the envelope every endpoint answers with. Exactly one of Data
// and Error is set.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo is the error half of the envelope
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta accompanies paginated lists
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// pageCount rounds up; a zero page size means one unbounded page.
func pageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps one page of a list
func NewSuccessResponseWithMeta(data interface{}, total int64, page, pageSize int) Response {
	resp := NewSuccessResponse(data)
	resp.Meta = &Meta{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pageCount(total, pageSize),
	}
	return resp
}

// NewErrorResponse builds an error envelope; domain codes are translated to
// their API equivalents.
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	info := &ErrorInfo{
		Code:      NormalizeErrorCode(code),
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
	return Response{Error: info}
}

// NewValidationErrorResponse lists every rejected field
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}
