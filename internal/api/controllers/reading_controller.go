package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hidroweb/backend/internal/api/middleware"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
)

// ReadingController handles HTTP requests for sensor readings
type ReadingController struct {
	readingService *services.ReadingService
	logger         *utils.Logger
}

// NewReadingController creates a new reading controller
func NewReadingController(readingService *services.ReadingService, logger *utils.Logger) *ReadingController {
	return &ReadingController{
		readingService: readingService,
		logger:         logger.Named("reading_controller"),
	}
}

// RegisterRoutes registers the inbox submission route
func (c *ReadingController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("", c.SubmitReading)
}

// RegisterCropRoutes registers the per-crop reading log routes
func (c *ReadingController) RegisterCropRoutes(router *gin.RouterGroup) {
	router.GET("", c.ListReadings)
	router.GET("/latest", c.GetLatestReading)
}

// SubmitReading handles a raw sensor reading posted into the inbox
func (c *ReadingController) SubmitReading(ctx *gin.Context) {
	var input services.SubmitReadingInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	reading, err := c.readingService.Submit(input)
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"docId": reading.DocID})
}

// GetLatestReading handles getting the newest archived reading for a crop
func (c *ReadingController) GetLatestReading(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	reading, err := c.readingService.Latest(growerUID, ctx.Param("cropId"))
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusOK, reading)
}

// ListReadings handles getting a crop's archived readings in a time range
func (c *ReadingController) ListReadings(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	var start, end time.Time
	var err error

	if raw := ctx.Query("start"); raw != "" {
		start, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time, expected RFC3339"})
			return
		}
	}
	if raw := ctx.Query("end"); raw != "" {
		end, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time, expected RFC3339"})
			return
		}
	}

	limit := 100
	if raw := ctx.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}

	readings, err := c.readingService.Range(growerUID, ctx.Param("cropId"), start, end, limit)
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"cultivoId": ctx.Param("cropId"),
		"count":     len(readings),
		"readings":  readings,
	})
}
