package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pageSize int
		want     int
	}{
		{name: "exact", total: 10, pageSize: 5, want: 2},
		{name: "remainder", total: 11, pageSize: 5, want: 3},
		{name: "empty", total: 0, pageSize: 5, want: 0},
		{name: "unpaginated", total: 42, pageSize: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.want, resp.Meta.TotalPages)
		})
	}
}

func TestNewErrorResponse_NormalizesDomainCodes(t *testing.T) {
	resp := NewErrorResponse(shared.CodeNotFound, "Product not found")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Product not found", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "user_id", Message: "is required"}}
	resp := NewValidationErrorResponse("Request validation failed", "req-1", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"req-1"`)
	assert.NotContains(t, string(data), `"data"`)
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{code: shared.CodeNotFound, want: http.StatusNotFound},
		{code: shared.CodeInvalidInput, want: http.StatusBadRequest},
		{code: shared.CodeInvalidOperation, want: http.StatusUnprocessableEntity},
		{code: shared.CodePriceMismatch, want: http.StatusUnprocessableEntity},
		{code: shared.CodeCollaboratorFailure, want: http.StatusBadGateway},
		{code: shared.CodeFeatureNotConfigured, want: http.StatusServiceUnavailable},
		{code: shared.CodeAlreadyProcessed, want: http.StatusConflict},
		{code: ErrCodeRateLimited, want: http.StatusTooManyRequests},
		{code: "SOMETHING_ELSE", want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(NormalizeErrorCode(tt.code)))
		})
	}
}

func TestNormalizeErrorCode_EveryDomainCode(t *testing.T) {
	domainCodes := []string{
		shared.CodeNotFound, shared.CodeInvalidInput, shared.CodeInvalidOperation,
		shared.CodeInvalidState, shared.CodePriceMismatch, shared.CodeCollaboratorFailure,
		shared.CodeEmptyCart, shared.CodeNotImplemented, shared.CodeInsufficientStock,
		shared.CodeConcurrencyConflict, shared.CodeMalformedCallback,
		shared.CodeFeatureNotConfigured, shared.CodeAlreadyProcessed,
	}
	for _, code := range domainCodes {
		api := NormalizeErrorCode(code)
		assert.NotEqual(t, code, api, "%s has no API code", code)
		_, ok := statusByCode[api]
		assert.True(t, ok, "no status for %s", api)
	}
	assert.Equal(t, ErrCodeRateLimited, NormalizeErrorCode(ErrCodeRateLimited))
}

func TestErrorCodes_Unique(t *testing.T) {
	seen := map[string]bool{}
	for _, ec := range errorCodes {
		assert.False(t, seen[ec.api], "duplicate %s", ec.api)
		seen[ec.api] = true
	}
	assert.Equal(t, http.StatusGatewayTimeout, GetHTTPStatus(ErrCodeTimeout))
}

func TestActionRequest_ToAction(t *testing.T) {
	req := ActionRequest{UserID: 7, Kind: "callback", Data: "product:3"}
	action := req.ToAction()

	assert.Equal(t, int64(7), action.UserID)
	assert.Equal(t, conversation.ActionCallback, action.Kind)
	assert.Equal(t, "product:3", action.Data)
}

func TestPaymentRequests_Convert(t *testing.T) {
	q := PreCheckoutRequest{ID: "q1", UserID: 7, Payload: "p", Currency: "USD", TotalAmount: 1999}.ToQuery()
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "USD", string(q.Currency))
	assert.Equal(t, int64(1999), q.TotalAmount)

	p := SuccessfulPaymentRequest{UserID: 7, Payload: "p", Currency: "USD", TotalAmount: 1999, ProviderChargeID: "ch_1"}.ToPayment()
	assert.Equal(t, "ch_1", p.ProviderChargeID)
	assert.Equal(t, int64(7), p.UserID)
}

func TestNewViewsResponse_NeverNil(t *testing.T) {
	data, err := json.Marshal(NewViewsResponse(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"views":[]}`, string(data))
}
