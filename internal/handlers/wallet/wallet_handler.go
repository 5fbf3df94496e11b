// internal/handlers/wallet/wallet_handler.go
package wallet

import (
	"context"
	"net/http"

	"dairy-subscription-service/internal/domain/wallet"
	"dairy-subscription-service/internal/middleware"
	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type WalletService interface {
	Summary(ctx context.Context, customerID int64) (*wallet.WalletSummary, error)
}

type WalletHandler struct {
	walletService WalletService
}

func NewWalletHandler(walletService WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet returns the balance and recent ledger lines
func (h *WalletHandler) GetWallet(c *gin.Context) {
	customerID := middleware.MustGetIdentityID(c)

	result, err := h.walletService.Summary(c.Request.Context(), customerID)
	if err != nil {
		response.FromError(c, "failed to load wallet", err)
		return
	}

	response.Success(c, http.StatusOK, "wallet retrieved", result)
}
