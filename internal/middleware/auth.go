package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
)

// LivenessChecker 确认令牌对应的用户仍存在且处于激活状态
type LivenessChecker interface {
	IsActive(ctx context.Context, userID int64) (bool, error)
}

// Auth JWT认证中间件
// 校验 Authorization: Bearer <token>，成功后把身份写入请求上下文；
// liveness 不为 nil 时额外拒绝已删除或已停用的账号
func Auth(tokens service.TokenService, liveness LivenessChecker, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	unauthorized := func(c *gin.Context, reason, msg string) {
		recordAuthFailure(reason)
		reqID := RequestIDFromContext(c.Request.Context())
		logger.Warn("authentication rejected",
			zap.String("reason", reason),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", reqID),
		)
		resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, msg, reqID, "")
		c.Abort()
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing_header", "authorization header required")
			return
		}

		// scheme 大小写不敏感
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			unauthorized(c, "bad_scheme", "invalid authorization header format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			unauthorized(c, "empty_token", "token required")
			return
		}

		identity, err := tokens.Validate(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				unauthorized(c, "expired", "token expired")
			} else {
				unauthorized(c, "invalid", "invalid token")
			}
			return
		}

		ctx := c.Request.Context()
		if liveness != nil {
			active, err := liveness.IsActive(ctx, identity.UserID)
			if err != nil {
				reqID := RequestIDFromContext(ctx)
				logger.Error("liveness check failed",
					zap.Int64("user_id", identity.UserID),
					zap.String("request_id", reqID),
					zap.Error(err),
				)
				resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError, "internal server error", reqID, "")
				c.Abort()
				return
			}
			if !active {
				unauthorized(c, "inactive", "account disabled")
				return
			}
		}

		c.Request = c.Request.WithContext(WithIdentity(ctx, identity))
		c.Next()
	}
}
