// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"context"
	"net/http"
	"strconv"

	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/middleware"
	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type SubscriptionService interface {
	GetSubscription(ctx context.Context, customerID, id int64) (*subscription.Subscription, error)
	ListSubscriptions(ctx context.Context, customerID int64, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error)
}

type DeliveryLister interface {
	ListForSubscription(ctx context.Context, customerID, subscriptionID int64) ([]delivery.EntryView, error)
}

type SubscriptionHandler struct {
	subscriptionService SubscriptionService
	deliveryService     DeliveryLister
}

func NewSubscriptionHandler(subscriptionService SubscriptionService, deliveryService DeliveryLister) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		deliveryService:     deliveryService,
	}
}

// ListSubscriptions retrieves the customer's subscriptions with filters
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	var filters subscription.SubscriptionListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), customerID, &filters)
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

// GetSubscription retrieves a subscription with its delivery entries
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	subscriptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid subscription ID", err)
		return
	}

	result, err := h.subscriptionService.GetSubscription(c.Request.Context(), customerID, subscriptionID)
	if err != nil {
		response.FromError(c, "subscription not found", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", result)
}

// ListDeliveries retrieves the delivery entries of a subscription
func (h *SubscriptionHandler) ListDeliveries(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	subscriptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid subscription ID", err)
		return
	}

	result, err := h.deliveryService.ListForSubscription(c.Request.Context(), customerID, subscriptionID)
	if err != nil {
		response.FromError(c, "failed to list deliveries", err)
		return
	}

	response.Success(c, http.StatusOK, "deliveries retrieved", result)
}
