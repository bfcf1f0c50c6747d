package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// LoggingMiddleware returns a middleware that logs HTTP requests
func LoggingMiddleware(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method
		clientIP := c.ClientIP()

		logFields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", clientIP),
			zap.Duration("latency", latency),
		}

		if uid, exists := c.Get(ContextGrowerUID); exists {
			logFields = append(logFields, zap.Any("grower_uid", uid))
		}

		switch {
		case statusCode >= 500:
			logger.Error("Server error", logFields...)
		case statusCode >= 400:
			logger.Warn("Client error", logFields...)
		default:
			logger.Info("Request completed", logFields...)
		}
	}
}
