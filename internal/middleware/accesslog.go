package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog 记录每个请求的访问日志
// 作为 gin 中间件运行，可以拿到路由模板与认证后的用户
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", RequestIDFromContext(c.Request.Context())),
		}
		if identity := IdentityFromContext(c.Request.Context()); identity != nil {
			fields = append(fields, zap.Int64("user_id", identity.UserID))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http_access", fields...)
		case status >= 400:
			logger.Warn("http_access", fields...)
		default:
			logger.Info("http_access", fields...)
		}
	}
}
