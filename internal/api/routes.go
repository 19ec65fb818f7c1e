package api

import (
	"cropr/internal/api/handlers"
	"cropr/internal/api/middleware"
	"cropr/internal/config"
	"cropr/internal/service"

	"github.com/gin-gonic/gin"
)

// Router holds the HTTP router and dependencies
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	cropHandler   *handlers.CropHandler
	imageHandler  *handlers.ImageHandler
	healthHandler *handlers.HealthHandler
	authHandler   *handlers.AuthHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	cfg *config.Config,
	cropService service.CropService,
	imageService service.ImageService,
	healthService service.HealthService,
) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	router := &Router{
		engine:        engine,
		config:        cfg,
		cropHandler:   handlers.NewCropHandler(cropService),
		imageHandler:  handlers.NewImageHandler(imageService, cfg),
		healthHandler: handlers.NewHealthHandler(healthService),
		authHandler:   handlers.NewAuthHandler(cfg),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.SecurityHeaders(r.config))
	r.engine.Use(middleware.CORS(r.config))
	r.engine.Use(middleware.RateLimit(r.config))
	r.engine.Use(middleware.RequestSizeLimit(r.config.Image.MaxFileSize))
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.GET("/generate-key", r.authHandler.GenerateAPIKey)
			auth.GET("/status", r.authHandler.GetAuthStatus)
		}

		images := v1.Group("/images")
		images.Use(middleware.APIKeyAuth(r.config))
		{
			images.POST("", middleware.RequirePermission(middleware.PermissionReadWrite), r.imageHandler.Upload)
			images.GET("", middleware.RequirePermission(middleware.PermissionRead), r.imageHandler.Search)
			images.GET("/:id", middleware.RequirePermission(middleware.PermissionRead), r.imageHandler.Detail)
			images.PATCH("/:id", middleware.RequirePermission(middleware.PermissionReadWrite), r.imageHandler.Update)
			images.DELETE("/:id", middleware.RequirePermission(middleware.PermissionReadWrite), r.imageHandler.Delete)
			images.POST("/:id/selections/:ratio", middleware.RequirePermission(middleware.PermissionReadWrite), r.imageHandler.UpdateSelection)
		}
	}

	if r.config.IsDevelopment() {
		r.engine.GET("/debug/vars", r.healthHandler.Metrics)
	}

	// Crop URLs have a variable-depth id path (one segment per shard
	// group), which gin's param routes cannot express. Everything that
	// misses the fixed routes is treated as a crop request.
	r.engine.NoRoute(r.cropHandler.Serve)
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
