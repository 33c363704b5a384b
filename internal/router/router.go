package router

import (
	"strings"

	"github.com/shipflow-next/internal/cache"
	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/http/handlers"
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Order      *handlers.OrderHandler
	Ndr        *handlers.NdrHandler
	Wallet     *handlers.WalletHandler
	Remittance *handlers.RemittanceHandler
}

// Setup builds the gin engine with middleware and all routes mounted.
func Setup(cfg *config.Config, authSvc *service.AuthService, redisClient *cache.Client, h Handlers) *gin.Engine {
	if strings.EqualFold(cfg.Server.Mode, "release") {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(RequestID(), Recovery(), AccessLog(), CORS(cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	v1.Use(RateLimit(cfg.Security.APIRateLimit, redisClient))

	v1.POST("/auth/token", h.Auth.IssueToken)

	// Partner webhooks carry the AWB, not a client token.
	v1.POST("/webhooks/tracking", h.Order.TrackingWebhook)

	authed := v1.Group("")
	authed.Use(ClientAuth(authSvc))
	{
		authed.POST("/orders", h.Order.Create)
		authed.GET("/orders", h.Order.List)
		authed.GET("/orders/:id", h.Order.Get)
		authed.POST("/orders/:id/assign", h.Order.Assign)
		authed.POST("/orders/:id/cancel", h.Order.Cancel)

		authed.GET("/ndr", h.Ndr.List)
		authed.GET("/ndr/health", h.Ndr.Health)
		authed.POST("/ndr/reattempt", h.Ndr.BulkReattempt)
		authed.POST("/ndr/:id/reattempt", h.Ndr.Reattempt)

		authed.GET("/wallet", h.Wallet.Get)
		authed.POST("/wallet/recharge", h.Wallet.Recharge)
		authed.GET("/wallet/logs", h.Wallet.Logs)

		authed.GET("/remittances", h.Remittance.List)
		authed.GET("/remittances/:id", h.Remittance.Get)
	}
	return engine
}
