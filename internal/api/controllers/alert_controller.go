package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hidroweb/backend/internal/api/middleware"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AlertController serves the tracked alert state and the realtime
// event stream
type AlertController struct {
	alertService *services.AlertService
	hub          *services.Hub
	logger       *utils.Logger
}

// NewAlertController creates a new alert controller
func NewAlertController(alertService *services.AlertService, hub *services.Hub, logger *utils.Logger) *AlertController {
	return &AlertController{
		alertService: alertService,
		hub:          hub,
		logger:       logger.Named("alert_controller"),
	}
}

// RegisterRoutes registers the alert routes
func (c *AlertController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", c.GetAlerts)
	router.GET("/:cropId", c.GetCropAlert)
}

// RegisterStreamRoutes registers the websocket route
func (c *AlertController) RegisterStreamRoutes(router *gin.RouterGroup) {
	router.GET("", c.Stream)
}

// GetAlerts returns the tracked alert state of the grower's crops
func (c *AlertController) GetAlerts(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	states := c.alertService.Snapshot()
	owned := states[:0]
	for _, state := range states {
		if state.GrowerUID == growerUID {
			owned = append(owned, state)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":  len(owned),
		"alerts": owned,
	})
}

// GetCropAlert returns the tracked alert state of one crop
func (c *AlertController) GetCropAlert(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	state, found := c.alertService.State(ctx.Param("cropId"))
	if !found || state.GrowerUID != growerUID {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No tracked state for crop"})
		return
	}

	ctx.JSON(http.StatusOK, state)
}

// Stream upgrades the connection and attaches the client to the hub
func (c *AlertController) Stream(ctx *gin.Context) {
	growerUID, ok := middleware.GrowerUID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Grower is not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Warn("Websocket upgrade failed",
			zap.String("grower_uid", growerUID),
			zap.Error(err))
		return
	}

	c.hub.RegisterClient(conn, growerUID)
}
