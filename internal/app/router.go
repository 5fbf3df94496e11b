// internal/app/router.go
package app

import (
	catalogHandler "dairy-subscription-service/internal/handlers/catalog"
	checkoutHandler "dairy-subscription-service/internal/handlers/checkout"
	deliveryHandler "dairy-subscription-service/internal/handlers/delivery"
	subscriptionHandler "dairy-subscription-service/internal/handlers/subscription"
	walletHandler "dairy-subscription-service/internal/handlers/wallet"
	"dairy-subscription-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	CheckoutHandler     *checkoutHandler.CheckoutHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	DeliveryHandler     *deliveryHandler.DeliveryHandler
	WalletHandler       *walletHandler.WalletHandler
	CatalogHandler      *catalogHandler.CatalogHandler
	AuthMiddleware      *middleware.AuthMiddleware
	ConfirmRateLimit    gin.HandlerFunc
	SkipRateLimit       gin.HandlerFunc
	MetricsHandler      gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	r.GET("/metrics", h.MetricsHandler)

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Catalog ====================
	catalog := api.Group("/catalog")
	{
		catalog.GET("/variants/:id/prices", h.CatalogHandler.GetVariantPrices)
	}

	// ==================== Checkout ====================
	checkout := api.Group("/checkout")
	checkout.Use(h.AuthMiddleware.Auth())
	{
		checkout.POST("/quote", h.CheckoutHandler.Quote)
		checkout.POST("/buy-once/quote", h.CheckoutHandler.BuyOnceQuote)
		checkout.POST("/confirm", h.ConfirmRateLimit, h.CheckoutHandler.Confirm)
	}

	// ==================== Subscriptions ====================
	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(h.AuthMiddleware.Auth())
	{
		subscriptions.GET("", h.SubscriptionHandler.ListSubscriptions)
		subscriptions.GET("/:id", h.SubscriptionHandler.GetSubscription)
		subscriptions.GET("/:id/deliveries", h.SubscriptionHandler.ListDeliveries)
	}

	// ==================== Deliveries ====================
	deliveries := api.Group("/deliveries")
	deliveries.Use(h.AuthMiddleware.Auth())
	{
		deliveries.POST("/:id/skip", h.SkipRateLimit, h.DeliveryHandler.Skip)
	}

	// ==================== Wallet ====================
	wallet := api.Group("/wallet")
	wallet.Use(h.AuthMiddleware.Auth())
	{
		wallet.GET("", h.WalletHandler.GetWallet)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.PUT("/catalog/price-tables", h.CatalogHandler.ImportPriceTables)

		admin.GET("/deliveries", h.DeliveryHandler.Manifest)
		admin.POST("/deliveries/:id/deliver", h.DeliveryHandler.MarkDelivered)
		admin.POST("/deliveries/:id/not-delivered", h.DeliveryHandler.MarkNotDelivered)
		admin.POST("/deliveries/:id/cancel", h.DeliveryHandler.Cancel)

		admin.POST("/checkouts/:reference/paid", h.CheckoutHandler.MarkPaid)
	}
}
