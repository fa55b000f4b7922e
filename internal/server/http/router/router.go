package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/glowmart/loyalty/internal/server/http/handlers"
	"github.com/glowmart/loyalty/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.LoyaltyFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	loyaltyHandler := handlers.NewLoyaltyHandler(facade)

	engine.GET("/healthz", loyaltyHandler.Health)

	api := engine.Group("/api")
	loyalty := api.Group("/loyalty")
	loyalty.GET("/balance", loyaltyHandler.Balance)
	loyalty.GET("/tiers", loyaltyHandler.Tiers)
	loyalty.GET("/transactions", loyaltyHandler.Transactions)
	loyalty.POST("/redeem", loyaltyHandler.Redeem)
	loyalty.POST("/redeem/:id/compensate", loyaltyHandler.Compensate)

	return engine
}
