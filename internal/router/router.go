// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/p2p-marketplace/internal/config"
    "github.com/iliyamo/p2p-marketplace/internal/handler"
    "github.com/iliyamo/p2p-marketplace/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication: the
// health check and the public item catalogue.
func RegisterRoutes(e *echo.Echo, browse *handler.BrowseHandler) {
    e.GET("/healthz", handler.Health)

    g := e.Group("/v1/items")
    g.GET("", browse.ListItems)
    g.GET("/:id", browse.GetItem)
}

// RegisterOrders registers the buyer-facing order endpoints under /v1.
// Everything here requires a valid access token; the status endpoint
// additionally carries a per-user rate limit because clients poll it in a
// loop after paying.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
    g := e.Group("/v1/orders")
    g.Use(middleware.JWTAuth(jwtSecret))

    g.POST("/crypto", o.CreateCryptoOrder)
    g.POST("/card", o.CreateCardOrder)
    g.POST("/:id/cancel", o.CancelOrder)
    g.GET("/:id/status", o.GetOrderStatus, middleware.RateLimit(rl, rdb))
}

// RegisterWebhooks registers the inbound payment rail endpoints.  These
// are deliberately outside the JWT group: the rails authenticate with
// HMAC signatures over the request body, not bearer tokens.
func RegisterWebhooks(e *echo.Echo, w *handler.WebhookHandler) {
    g := e.Group("/v1/webhooks")
    g.POST("/stripe", w.StripeWebhook)
    g.POST("/crypto", w.CryptoWebhook)
}
