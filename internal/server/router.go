package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lyrebird-health/flarelog-backend/internal/handlers"
	"github.com/lyrebird-health/flarelog-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	UserHandler      *handlers.UserHandler
	EventHandler     *handlers.EventHandler
	DiscoveryHandler *handlers.DiscoveryHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("flarelog"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	api := protected.Group("/api")
	// User
	api.GET("/user", cfg.UserHandler.GetMe)
	// Events
	api.POST("/events", cfg.EventHandler.Ingest)
	api.GET("/events", cfg.EventHandler.List)
	// Discoveries
	api.POST("/discoveries/analyze", cfg.DiscoveryHandler.RunAnalysis)
	api.GET("/discoveries", cfg.DiscoveryHandler.List)
	api.GET("/discoveries/unsurfaced", cfg.DiscoveryHandler.ListUnsurfaced)
	api.POST("/discoveries/surfaced", cfg.DiscoveryHandler.MarkSurfaced)
	api.POST("/discoveries/:id/acknowledge", cfg.DiscoveryHandler.Acknowledge)

	return router
}
