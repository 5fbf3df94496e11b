// internal/handlers/checkout/checkout_handler.go
package checkout

import (
	"context"
	"net/http"

	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/middleware"
	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckoutService interface {
	Quote(ctx context.Context, customerID int64, req *subscription.CheckoutRequest) (*subscription.Quote, error)
	BuyOnceQuote(ctx context.Context, customerID int64, req *subscription.BuyOnceRequest) (*subscription.BuyOnceQuote, error)
	Confirm(ctx context.Context, customerID int64, req *subscription.CheckoutRequest) (*subscription.Confirmation, error)
	MarkCheckoutPaid(ctx context.Context, checkoutReference string) error
}

type CheckoutHandler struct {
	checkoutService CheckoutService
}

func NewCheckoutHandler(checkoutService CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// ========== Customer Endpoints ==========

// Quote prices a subscription checkout without creating anything
func (h *CheckoutHandler) Quote(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	var req subscription.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.checkoutService.Quote(c.Request.Context(), customerID, &req)
	if err != nil {
		response.FromError(c, "failed to quote checkout", err)
		return
	}

	response.Success(c, http.StatusOK, "quote computed", result)
}

// BuyOnceQuote prices a one-time purchase
func (h *CheckoutHandler) BuyOnceQuote(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	var req subscription.BuyOnceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.checkoutService.BuyOnceQuote(c.Request.Context(), customerID, &req)
	if err != nil {
		response.FromError(c, "failed to quote purchase", err)
		return
	}

	response.Success(c, http.StatusOK, "quote computed", result)
}

// Confirm creates the subscriptions of a checkout
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	var req subscription.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.checkoutService.Confirm(c.Request.Context(), customerID, &req)
	if err != nil {
		response.FromError(c, "failed to confirm checkout", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscriptions created successfully", result)
}

// ========== Admin Endpoints ==========

// MarkPaid records the payment of a checkout
func (h *CheckoutHandler) MarkPaid(c *gin.Context) {
	if err := h.checkoutService.MarkCheckoutPaid(c.Request.Context(), c.Param("reference")); err != nil {
		response.FromError(c, "failed to mark checkout paid", err)
		return
	}

	response.Success(c, http.StatusOK, "checkout marked paid", nil)
}
