package dto

import (
	"github.com/storefront/backend/internal/application/storefront"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ActionRequest is one user interaction relayed by the chat gateway
type ActionRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	Kind    string `json:"kind" binding:"required,oneof=command text callback"`
	Command string `json:"command" binding:"required_if=Kind command,max=64"`
	Text    string `json:"text" binding:"max=4096"`
	Data    string `json:"data" binding:"required_if=Kind callback,max=64"`
}

// ToAction converts the request into a conversation action
func (r ActionRequest) ToAction() conversation.Action {
	return conversation.Action{
		UserID:  r.UserID,
		Kind:    conversation.ActionKind(r.Kind),
		Command: r.Command,
		Text:    r.Text,
		Data:    r.Data,
	}
}

// PreCheckoutRequest asks whether a pending charge may proceed
type PreCheckoutRequest struct {
	ID          string `json:"id" binding:"max=128"`
	UserID      int64  `json:"user_id" binding:"required"`
	Payload     string `json:"payload" binding:"required,max=128"`
	Currency    string `json:"currency" binding:"required,len=3"`
	TotalAmount int64  `json:"total_amount" binding:"gte=0"`
}

// ToQuery converts the request into a pre-checkout query
func (r PreCheckoutRequest) ToQuery() payment.PreCheckoutQuery {
	return payment.PreCheckoutQuery{
		ID:          r.ID,
		UserID:      r.UserID,
		Payload:     r.Payload,
		Currency:    valueobject.Currency(r.Currency),
		TotalAmount: r.TotalAmount,
	}
}

// PreCheckoutResponse answers a pre-checkout query
type PreCheckoutResponse struct {
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// SuccessfulPaymentRequest notifies a completed charge
type SuccessfulPaymentRequest struct {
	UserID           int64  `json:"user_id" binding:"required"`
	Payload          string `json:"payload" binding:"required,max=128"`
	Currency         string `json:"currency" binding:"required,len=3"`
	TotalAmount      int64  `json:"total_amount" binding:"gte=0"`
	ProviderChargeID string `json:"provider_charge_id" binding:"required,max=256"`
}

// ToPayment converts the request into a successful payment
func (r SuccessfulPaymentRequest) ToPayment() payment.SuccessfulPayment {
	return payment.SuccessfulPayment{
		UserID:           r.UserID,
		Payload:          r.Payload,
		Currency:         valueobject.Currency(r.Currency),
		TotalAmount:      r.TotalAmount,
		ProviderChargeID: r.ProviderChargeID,
	}
}

// ViewsResponse lists the views produced for one request, in delivery order
type ViewsResponse struct {
	Views []storefront.View `json:"views"`
}

// NewViewsResponse wraps views, never returning a nil list
func NewViewsResponse(views []storefront.View) ViewsResponse {
	if views == nil {
		views = []storefront.View{}
	}
	return ViewsResponse{Views: views}
}
