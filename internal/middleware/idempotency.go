package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/resp"
)

// IdempotencyConfig 幂等性中间件配置
type IdempotencyConfig struct {
	// 幂等键头名称
	Header string
	// 幂等键保留时间
	TTL time.Duration
}

const maxIdempotencyKeyLen = 128

// Idempotency 基于缓存 SetNX 的幂等中间件，需挂在 Auth 之后
// 同一用户在 TTL 内重复提交相同幂等键返回 409；
// 未携带幂等键的请求直接放行，处理失败时释放幂等键以便客户端重试
func Idempotency(store cache.Cache, cfg IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	if cfg.Header == "" {
		cfg.Header = "X-Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.Header))
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		reqID := RequestIDFromContext(ctx)
		if len(key) > maxIdempotencyKeyLen {
			resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "idempotency key too long", reqID, "")
			c.Abort()
			return
		}

		var userID int64
		if identity := IdentityFromContext(ctx); identity != nil {
			userID = identity.UserID
		}
		cacheKey := fmt.Sprintf("idempotency:%d:%s:%s:%s", userID, c.Request.Method, c.FullPath(), key)

		ok, err := store.SetNX(ctx, cacheKey, reqID, cfg.TTL)
		if err != nil {
			// 缓存不可用时放行，不因幂等层故障拒绝业务请求
			logger.Warn("idempotency check failed", zap.String("request_id", reqID), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			logger.Info("duplicate request rejected",
				zap.String("idempotency_key", key),
				zap.Int64("user_id", userID),
				zap.String("request_id", reqID),
			)
			resp.Error(c.Writer, http.StatusConflict, resp.CodeConflict, "duplicate request", reqID, "")
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Del(c.Request.Context(), cacheKey); err != nil {
				logger.Warn("release idempotency key failed", zap.String("request_id", reqID), zap.Error(err))
			}
		}
	}
}
