package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

var setupValidator sync.Once

// SetupValidator makes gin's validator report fields by their json (or
// form) name instead of the Go field name. Safe to call more than once.
func SetupValidator() {
	setupValidator.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(wireName)
		}
	})
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// ruleMessages renders a failed rule for the API caller
var ruleMessages = map[string]func(validator.FieldError) string{
	"required":    func(validator.FieldError) string { return "This field is required" },
	"required_if": func(validator.FieldError) string { return "This field is required" },
	"max": func(e validator.FieldError) string {
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", e.Param())
		}
		return "Must be at most " + e.Param()
	},
	"len":   func(e validator.FieldError) string { return fmt.Sprintf("Must be exactly %s characters", e.Param()) },
	"oneof": func(e validator.FieldError) string { return "Must be one of: " + e.Param() },
	"gte":   func(e validator.FieldError) string { return "Must be greater than or equal to " + e.Param() },
	"lte":   func(e validator.FieldError) string { return "Must be less than or equal to " + e.Param() },
}

func ruleMessage(e validator.FieldError) string {
	if render, ok := ruleMessages[e.Tag()]; ok {
		return render(e)
	}
	return "Invalid value"
}

// FormatValidationErrors maps a binding error to the API error body. Errors
// that are not field validations are reported as a malformed body.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Malformed request body", requestID)
	}
	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: ruleMessage(fe)}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 response for a binding error
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}
