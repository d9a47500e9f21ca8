// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/config"
	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/handlers"
	"github.com/affilink/affiliate-backend/internal/middleware"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/utils"
)

// Initialize wires services and handlers onto a gin engine. The caller
// owns the publisher and enqueuer lifecycles so they can be closed on
// shutdown.
func Initialize(db *gorm.DB, cfg *config.Config, publisher events.Publisher, enqueuer queue.Enqueuer) *gin.Engine {
	// Initialize services
	productService := services.NewProductService(db, publisher, enqueuer)
	linkService := services.NewLinkService(db, publisher, cfg.Security.RedirectAllowlist)
	redirectService := services.NewRedirectService(db, publisher, enqueuer, cfg.Security.IPHashSecret)
	campaignService := services.NewCampaignService(db, publisher, enqueuer)
	analyticsService := services.NewAnalyticsService(db)
	authService := services.NewAuthService(cfg)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(productService)
	linkHandler := handlers.NewLinkHandler(linkService)
	redirectHandler := handlers.NewRedirectHandler(redirectService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	authHandler := handlers.NewAuthHandler(authService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Public redirect route. Carries its own rate limit tuned for
	// click traffic rather than the admin API limit.
	r.GET("/go/:code", middleware.RedirectRateLimit(), redirectHandler.Redirect)

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.GeneralRateLimit())
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/token", authHandler.IssueToken)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id/offers", productHandler.GetProductOffers)
			products.POST("", middleware.AuthRequired(), productHandler.CreateProduct)
		}

		// Link routes
		links := v1.Group("/links")
		{
			links.GET("", linkHandler.GetLinks)
			links.POST("", middleware.AuthRequired(), linkHandler.CreateLink)
		}

		// Campaign routes
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id/landing", campaignHandler.GetCampaignLanding)
			campaigns.POST("", middleware.AuthRequired(), campaignHandler.UpsertCampaign)
		}

		// Analytics routes
		v1.GET("/dashboard", middleware.AuthRequired(), analyticsHandler.GetDashboard)
	}

	return r
}
