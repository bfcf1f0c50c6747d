package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/notify"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// TelegramController accepts explicit alert dispatch orders from
// external monitoring processes
type TelegramController struct {
	alertService *services.AlertService
	logger       *utils.Logger
}

// NewTelegramController creates a new telegram controller
func NewTelegramController(alertService *services.AlertService, logger *utils.Logger) *TelegramController {
	return &TelegramController{
		alertService: alertService,
		logger:       logger.Named("telegram_controller"),
	}
}

// RegisterRoutes registers the telegram dispatch route
func (c *TelegramController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/send-telegram-alert", c.SendAlert)
}

// SendAlert formats and delivers a Telegram alert for a breach the
// caller detected. Missing identifiers are a client error, an unknown
// grower or crop and an unlinked channel map to not found, and a
// delivery failure surfaces as a server error.
func (c *TelegramController) SendAlert(ctx *gin.Context) {
	var req services.DispatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "uid and cultivoId are required"})
		return
	}

	err := c.alertService.Dispatch(ctx.Request.Context(), req)
	if err == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "sent"})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Grower or crop not found"})
	case errors.Is(err, notify.ErrChannelNotConfigured):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Grower has no Telegram channel configured"})
	case errors.Is(err, utils.ErrBadRequest):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, notify.ErrDeliveryFailed):
		c.logger.Error("Telegram dispatch failed",
			zap.String("crop_id", req.CropID),
			zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deliver Telegram alert"})
	default:
		utils.HandleError(ctx, mapServiceError(err), c.logger)
	}
}
