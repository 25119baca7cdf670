package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs the details of each HTTP request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		}
		if s, ok := lookup(c); ok {
			attrs = append(attrs, "user_id", s.UserID)
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("HTTP Request", attrs...)
		case len(c.Errors) > 0:
			logger.Warn("HTTP Request", append(attrs, "errors", c.Errors.String())...)
		default:
			logger.Info("HTTP Request", attrs...)
		}
	}
}

// CORS allows browser clients on other origins
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
