package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hidroweb/backend/internal/api/controllers"
	"github.com/hidroweb/backend/internal/api/middleware"
	"github.com/hidroweb/backend/internal/config"
	"github.com/hidroweb/backend/internal/db"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router manages the API routes and controllers
type Router struct {
	engine             *gin.Engine
	logger             *utils.Logger
	config             *config.Config
	authMiddleware     *middleware.AuthMiddleware
	serviceProvider    *services.ServiceProvider
	db                 *db.Database
	apiV1              *gin.RouterGroup
	cropController     *controllers.CropController
	readingController  *controllers.ReadingController
	alertController    *controllers.AlertController
	telegramController *controllers.TelegramController
}

// NewRouter creates a new Router instance
func NewRouter(
	config *config.Config,
	logger *utils.Logger,
	db *db.Database,
	serviceProvider *services.ServiceProvider,
) *Router {
	// Set Gin mode based on environment
	if config.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger and recovery middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.LoggingMiddleware(logger))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Authorization", "Content-Type", "Origin"}
	engine.Use(cors.New(corsConfig))

	// Create JWT auth middleware
	authMiddleware := middleware.NewAuthMiddleware(&config.JWT)

	return &Router{
		engine:          engine,
		logger:          logger.Named("router"),
		config:          config,
		authMiddleware:  authMiddleware,
		serviceProvider: serviceProvider,
		db:              db,
	}
}

// SetupRoutes configures all API routes
func (r *Router) SetupRoutes() {
	// Health check endpoint (no auth required)
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API version group - all main API routes are under /api/v1
	r.apiV1 = r.engine.Group("/api/v1")

	// Setup controllers
	r.cropController = controllers.NewCropController(r.serviceProvider.GetCropService(), r.logger)
	r.readingController = controllers.NewReadingController(r.serviceProvider.GetReadingService(), r.logger)
	r.alertController = controllers.NewAlertController(
		r.serviceProvider.GetAlertService(),
		r.serviceProvider.GetHub(),
		r.logger,
	)
	r.telegramController = controllers.NewTelegramController(r.serviceProvider.GetAlertService(), r.logger)

	// Routes that require authentication
	authorizedRoutes := r.apiV1.Group("")
	authorizedRoutes.Use(r.authMiddleware.RequireAuth())

	// Crop routes with the reading log nested under each crop
	cropsRoutes := authorizedRoutes.Group("/crops")
	r.cropController.RegisterRoutes(cropsRoutes)
	r.readingController.RegisterCropRoutes(cropsRoutes.Group("/:cropId/readings"))

	// Inbox submission for sensor processes
	r.readingController.RegisterRoutes(authorizedRoutes.Group("/readings"))

	// Alert state and realtime stream
	r.alertController.RegisterRoutes(authorizedRoutes.Group("/alerts"))
	r.alertController.RegisterStreamRoutes(authorizedRoutes.Group("/ws"))

	// Explicit Telegram dispatch for external monitors
	r.telegramController.RegisterRoutes(authorizedRoutes.Group("/telegram"))

	// Add Swagger documentation if not in production
	if !r.config.Server.IsProduction() {
		r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.logger.Info("API routes setup completed")
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
