package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hidroweb/backend/internal/api/middleware"
	"github.com/hidroweb/backend/internal/catalog"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
)

// CropController handles HTTP requests for crop operations
type CropController struct {
	cropService *services.CropService
	logger      *utils.Logger
}

// NewCropController creates a new crop controller
func NewCropController(cropService *services.CropService, logger *utils.Logger) *CropController {
	return &CropController{
		cropService: cropService,
		logger:      logger.Named("crop_controller"),
	}
}

// RegisterRoutes registers the crop routes
func (c *CropController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("", c.CreateCrop)
	router.GET("", c.ListCrops)
	router.GET("/catalog", c.GetCatalog)
	router.GET("/:cropId", c.GetCrop)
	router.PUT("/:cropId", c.UpdateCrop)
	router.DELETE("/:cropId", c.DeleteCrop)
}

// CreateCrop handles creating a new crop
func (c *CropController) CreateCrop(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	var input services.CreateCropInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	crop, err := c.cropService.Create(growerUID, input)
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusCreated, crop)
}

// ListCrops handles listing the authenticated grower's crops
func (c *CropController) ListCrops(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	pagination := utils.GetPaginationFromContext(ctx)

	crops, total, err := c.cropService.List(growerUID, pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPaginatedResponse(crops, pagination, total))
}

// GetCatalog returns the supported varieties, phases and their
// nutritional requirements
func (c *CropController) GetCatalog(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"variedades":     catalog.Varieties,
		"fases":          catalog.Phases,
		"requerimientos": catalog.All(),
	})
}

// GetCrop handles getting one of the grower's crops
func (c *CropController) GetCrop(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	crop, err := c.cropService.Get(growerUID, ctx.Param("cropId"))
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusOK, crop)
}

// UpdateCrop handles updating a crop's phase or planting date
func (c *CropController) UpdateCrop(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	var input services.UpdateCropInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	crop, err := c.cropService.Update(growerUID, ctx.Param("cropId"), input)
	if err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusOK, crop)
}

// DeleteCrop handles deleting a crop and its reading log
func (c *CropController) DeleteCrop(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	if err := c.cropService.Delete(growerUID, ctx.Param("cropId")); err != nil {
		utils.HandleError(ctx, mapServiceError(err), c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
