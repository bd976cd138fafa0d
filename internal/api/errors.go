// Package api 提供HTTP API处理器实现。
// API层负责绑定与校验请求、调用服务层，并把业务错误翻译为统一的响应。
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/middleware"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
	"github.com/MorseWayne/content_shop/internal/storage"
)

// errorMapping 业务错误到 HTTP 状态与错误码的映射
type errorMapping struct {
	target  error
	status  int
	code    int
	message string
}

// 按顺序匹配，message 为空时使用错误本身的文本
var errorTable = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, resp.CodeInvalidParam, ""},
	{storage.ErrFileTooLarge, http.StatusBadRequest, resp.CodeInvalidParam, "file too large"},
	{storage.ErrUnsupportedType, http.StatusBadRequest, resp.CodeInvalidParam, "unsupported file type"},
	{storage.ErrEmptyFile, http.StatusBadRequest, resp.CodeInvalidParam, "empty file"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid username or password"},
	{service.ErrTokenExpired, http.StatusUnauthorized, resp.CodeUnauthorized, "token expired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid token"},
	{service.ErrIncorrectPassword, http.StatusUnauthorized, resp.CodeUnauthorized, "incorrect password"},
	{service.ErrForbidden, http.StatusForbidden, resp.CodeForbidden, "forbidden"},
	{service.ErrUserNotFound, http.StatusNotFound, resp.CodeNotFound, "user not found"},
	{service.ErrBlogNotFound, http.StatusNotFound, resp.CodeNotFound, "blog not found"},
	{service.ErrProductNotFound, http.StatusNotFound, resp.CodeNotFound, "product not found"},
	{service.ErrOrderNotFound, http.StatusNotFound, resp.CodeNotFound, "order not found"},
	{service.ErrNotificationNotFound, http.StatusNotFound, resp.CodeNotFound, "notification not found"},
	{service.ErrDuplicateUsername, http.StatusConflict, resp.CodeConflict, "username already registered"},
	{service.ErrDuplicateEmail, http.StatusConflict, resp.CodeConflict, "email already registered"},
	{service.ErrProductInUse, http.StatusConflict, resp.CodeConflict, "product is referenced by orders"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, resp.CodeTimeout, "request timeout"},
}

// writeError 统一的错误出口：已知业务错误按表映射，其余记录日志并返回 500
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	reqID := requestID(c)
	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		if m.status == http.StatusGatewayTimeout {
			logger.Warn("request failed", zap.String("request_id", reqID), zap.Error(err))
		}
		resp.Error(c.Writer, m.status, m.code, msg, reqID, "")
		return
	}

	logger.Error("unexpected error",
		zap.String("request_id", reqID),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError, "internal server error", reqID, "")
}

// writeBindError 请求体绑定或校验失败时返回 400
func writeBindError(c *gin.Context, err error) {
	resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, bindErrorMessage(err), requestID(c), "")
}

// bindErrorMessage 把 validator 的字段错误转成可读文本
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	parts := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fmt.Sprintf("%s: failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag())
	})
	return strings.Join(parts, "; ")
}

var registerOnce sync.Once

// RegisterValidatorTagNames 让校验错误使用 json 字段名
func RegisterValidatorTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

func requestID(c *gin.Context) string {
	return middleware.RequestIDFromContext(c.Request.Context())
}

// currentIdentity 受保护路由上由 Auth 中间件注入；缺失时直接返回 401
func currentIdentity(c *gin.Context) (*domain.Identity, bool) {
	identity := middleware.IdentityFromContext(c.Request.Context())
	if identity == nil {
		resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", requestID(c), "")
		return nil, false
	}
	return identity, true
}

// parseID 解析路径中的正整数 ID
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "invalid "+name, requestID(c), "")
		return 0, false
	}
	return id, true
}

func writeDeleted(c *gin.Context) {
	resp.WriteJSON(c.Writer, http.StatusOK, resp.CodeOK, "deleted", nil, requestID(c), "")
}
