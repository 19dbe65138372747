package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/storefront"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Storefront is the conversation front end driven by the gateway
type Storefront interface {
	Handle(ctx context.Context, action conversation.Action, sink storefront.Sink) error
	PreCheckout(ctx context.Context, q payment.PreCheckoutQuery) (bool, string)
	PaymentSucceeded(ctx context.Context, p payment.SuccessfulPayment, sink storefront.Sink) error
}

// ActionRecorder counts handled actions
type ActionRecorder interface {
	RecordAction(ctx context.Context, kind string, failed bool)
}

// StorefrontHandler relays gateway actions to the storefront and returns the
// views to deliver
type StorefrontHandler struct {
	BaseHandler
	storefront Storefront
	recorder   ActionRecorder
}

// NewStorefrontHandler creates a new StorefrontHandler. recorder may be nil.
func NewStorefrontHandler(sf Storefront, recorder ActionRecorder) *StorefrontHandler {
	return &StorefrontHandler{storefront: sf, recorder: recorder}
}

// HandleAction processes one user action.
//
// @Summary      Handle a user action
// @Description  Runs a command, free text or button callback through the conversation and returns the views to deliver
// @Tags         storefront
// @Accept       json
// @Produce      json
// @Param        request body dto.ActionRequest true "User action"
// @Success      200 {object} dto.Response{data=dto.ViewsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /actions [post]
func (h *StorefrontHandler) HandleAction(c *gin.Context) {
	var req dto.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	withUserID(c, req.UserID)

	action := req.ToAction()
	views := storefront.NewCollector()
	err := h.storefront.Handle(c.Request.Context(), action, views)
	h.record(c.Request.Context(), actionKind(action), err != nil)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewViewsResponse(views.Views()))
}

// PreCheckout answers whether a pending charge may proceed.
//
// @Summary      Validate a pre-checkout query
// @Description  Accepts the charge only if payload, currency and total match the pending invoice
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body dto.PreCheckoutRequest true "Pre-checkout query"
// @Success      200 {object} dto.Response{data=dto.PreCheckoutResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/pre-checkout [post]
func (h *StorefrontHandler) PreCheckout(c *gin.Context) {
	var req dto.PreCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	withUserID(c, req.UserID)

	ok, message := h.storefront.PreCheckout(c.Request.Context(), req.ToQuery())
	h.record(c.Request.Context(), "pre_checkout", !ok)
	h.Success(c, dto.PreCheckoutResponse{OK: ok, ErrorMessage: message})
}

// PaymentSucceeded records a completed charge.
//
// @Summary      Settle a successful payment
// @Description  Turns the cart into an order once per provider charge id
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body dto.SuccessfulPaymentRequest true "Successful payment"
// @Success      200 {object} dto.Response{data=dto.ViewsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/successful [post]
func (h *StorefrontHandler) PaymentSucceeded(c *gin.Context) {
	var req dto.SuccessfulPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	withUserID(c, req.UserID)

	views := storefront.NewCollector()
	err := h.storefront.PaymentSucceeded(c.Request.Context(), req.ToPayment(), views)
	h.record(c.Request.Context(), "successful_payment", err != nil)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewViewsResponse(views.Views()))
}

func (h *StorefrontHandler) record(ctx context.Context, kind string, failed bool) {
	if h.recorder != nil {
		h.recorder.RecordAction(ctx, kind, failed)
	}
}

// actionKind names an action for metrics without its arguments. Commands are
// free text, so only known ones keep their name.
func actionKind(a conversation.Action) string {
	switch a.Kind {
	case conversation.ActionCommand:
		if !conversation.IsKnownCommand(a.Command) {
			return "command:other"
		}
		return "command:" + a.Command
	case conversation.ActionCallback:
		cb, err := conversation.ParseCallback(a.Data)
		if err != nil {
			return "callback:malformed"
		}
		return "callback:" + cb.Name
	default:
		return string(a.Kind)
	}
}
