// internal/handlers/catalog/catalog_handler.go
package catalog

import (
	"context"
	"net/http"
	"strconv"

	"dairy-subscription-service/internal/domain/catalog"
	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxFeedBytes bounds an uploaded price feed.
const maxFeedBytes = 8 << 20

type CatalogService interface {
	VariantPrices(ctx context.Context, variantID int64) (*catalog.VariantPrices, error)
	ImportPriceFeed(ctx context.Context, body []byte) (*catalog.PriceImportResult, error)
}

type CatalogHandler struct {
	catalogService CatalogService
}

func NewCatalogHandler(catalogService CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetVariantPrices returns the resolved price of a variant for every period
func (h *CatalogHandler) GetVariantPrices(c *gin.Context) {
	variantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid variant ID", err)
		return
	}

	result, err := h.catalogService.VariantPrices(c.Request.Context(), variantID)
	if err != nil {
		response.FromError(c, "failed to load prices", err)
		return
	}

	response.Success(c, http.StatusOK, "prices retrieved", result)
}

// ImportPriceTables upserts price tables from an upstream catalog feed
func (h *CatalogHandler) ImportPriceTables(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFeedBytes)
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	result, err := h.catalogService.ImportPriceFeed(c.Request.Context(), body)
	if err != nil {
		response.FromError(c, "failed to import price tables", err)
		return
	}

	response.Success(c, http.StatusOK, "price tables imported", result)
}
