// 日志中间件
package middleware

import (
	"time"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/utils"
	"github.com/gin-gonic/gin"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := utils.RequestIDOrNew(c.GetHeader(utils.RequestIDHeader))
		c.Set("requestID", requestID)
		c.Header(utils.RequestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		config.Logger.Infow("request",
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"latency", latency.String(),
			"userAgent", c.Request.UserAgent(),
		)
	}
}
