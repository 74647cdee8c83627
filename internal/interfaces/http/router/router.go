package router

import (
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"

	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/config"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/logger"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/handler"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Products  *handler.ProductHandler
	Orders    *handler.OrderHandler
	Sync      *handler.SyncHandler
	CSVImport *handler.CSVImportHandler
	System    *handler.SystemHandler
}

// New builds the gin engine with middleware and all API routes
func New(cfg *config.Config, zapLogger *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(zapLogger))
	engine.Use(logger.Recovery(zapLogger))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(limiter.Middleware())
	}

	api := engine.Group("/api/v1")
	{
		api.GET("/products", h.Products.List)
		api.POST("/products/sync", h.Products.Sync)

		api.GET("/orders", h.Orders.List)
		api.GET("/orders/:id", h.Orders.Get)
		api.POST("/orders/sync", h.Orders.Sync)
		api.GET("/orders/:id/profitability", h.Orders.Profitability)
		api.GET("/order-items/:orderId", h.Orders.Items)

		api.POST("/csv/import", h.CSVImport.Import)
		api.GET("/sync/stream", h.Sync.Stream)

		api.GET("/system/health", h.System.Health)
		api.GET("/baselinker/test", h.System.TestVendor)
	}

	return engine
}
