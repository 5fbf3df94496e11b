// internal/handlers/delivery/delivery_handler.go
package delivery

import (
	"context"
	"net/http"
	"strconv"

	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/middleware"
	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeliveryService interface {
	Skip(ctx context.Context, customerID, entryID int64) (*delivery.SkipResult, error)
	MarkDelivered(ctx context.Context, entryID int64, channel delivery.FulfillmentChannel) (*delivery.Entry, error)
	MarkNotDelivered(ctx context.Context, entryID int64, reason string) (*delivery.Entry, error)
	Cancel(ctx context.Context, entryID int64, reason string) (*delivery.Entry, error)
	Manifest(ctx context.Context, filters *delivery.ManifestFilters) ([]delivery.ManifestLine, error)
}

type DeliveryHandler struct {
	deliveryService DeliveryService
}

func NewDeliveryHandler(deliveryService DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
	}
}

// ========== Customer Endpoints ==========

// Skip skips one future delivery
func (h *DeliveryHandler) Skip(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	result, err := h.deliveryService.Skip(c.Request.Context(), customerID, entryID)
	if err != nil {
		response.FromError(c, "failed to skip delivery", err)
		return
	}

	response.Success(c, http.StatusOK, "delivery skipped", result)
}

// ========== Admin Endpoints ==========

// Manifest lists the deliveries due on a date
func (h *DeliveryHandler) Manifest(c *gin.Context) {
	var filters delivery.ManifestFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.deliveryService.Manifest(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to load manifest", err)
		return
	}

	response.Success(c, http.StatusOK, "manifest retrieved", result)
}

// MarkDelivered records a fulfilled delivery
func (h *DeliveryHandler) MarkDelivered(c *gin.Context) {
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	var req delivery.MarkDeliveredRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.deliveryService.MarkDelivered(c.Request.Context(), entryID, req.Channel)
	if err != nil {
		response.FromError(c, "failed to mark delivered", err)
		return
	}

	response.Success(c, http.StatusOK, "delivery marked delivered", result)
}

// MarkNotDelivered records a failed delivery attempt
func (h *DeliveryHandler) MarkNotDelivered(c *gin.Context) {
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	var req delivery.StatusReasonRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.deliveryService.MarkNotDelivered(c.Request.Context(), entryID, req.Reason)
	if err != nil {
		response.FromError(c, "failed to mark not delivered", err)
		return
	}

	response.Success(c, http.StatusOK, "delivery marked not delivered", result)
}

// Cancel cancels a pending delivery
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	var req delivery.StatusReasonRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.deliveryService.Cancel(c.Request.Context(), entryID, req.Reason)
	if err != nil {
		response.FromError(c, "failed to cancel delivery", err)
		return
	}

	response.Success(c, http.StatusOK, "delivery cancelled", result)
}

func entryIDParam(c *gin.Context) (int64, bool) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid delivery ID", err)
		return 0, false
	}
	return entryID, true
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj)
}
