package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
	"github.com/MorseWayne/content_shop/internal/storage"
)

// UserHandler 认证与用户资料相关的HTTP处理器
type UserHandler struct {
	userService service.UserService
	store       storage.Store
	logger      *zap.Logger
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService service.UserService, store storage.Store, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{
		userService: userService,
		store:       store,
		logger:      logger,
	}
}

// Register 处理用户注册请求
// POST /api/v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.Created(c.Writer, user, requestID(c), "")
}

// Login JSON 登录
// POST /api/v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, result, requestID(c), "")
}

// Token OAuth2 password 表单登录，响应体不做统一包裹
// POST /api/v1/auth/token
func (h *UserHandler) Token(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"expires_in":   result.ExpiresIn,
	})
}

// Me 当前用户资料
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), identity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, user, requestID(c), "")
}

// UpdateProfile 修改资料
// PUT /api/v1/users/profile, PUT /api/v1/auth/update
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, user, requestID(c), "")
}

// ChangePassword 修改密码
// PUT /api/v1/auth/change_password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), identity, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.WriteJSON(c.Writer, http.StatusOK, resp.CodeOK, "password updated", nil, requestID(c), "")
}

// Deactivate 停用当前账号
// DELETE /api/v1/users/me
func (h *UserHandler) Deactivate(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	if err := h.userService.Deactivate(c.Request.Context(), identity); err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.WriteJSON(c.Writer, http.StatusOK, resp.CodeOK, "account deactivated", nil, requestID(c), "")
}

// UploadProfilePicture 上传头像，multipart 字段名 file
// POST /api/v1/users/profile-picture
func (h *UserHandler) UploadProfilePicture(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	url, ok := saveUpload(c, h.store, storage.ProfilePictureName(identity.UserID), storage.ProfileImageTypes, h.logger)
	if !ok {
		return
	}

	user, previous, err := h.userService.UpdateProfilePicture(c.Request.Context(), identity, url)
	if err != nil {
		h.removeUpload(url)
		writeError(c, h.logger, err)
		return
	}
	if previous != "" {
		h.removeUpload(previous)
	}
	resp.OK(c.Writer, user, requestID(c), "")
}

func (h *UserHandler) removeUpload(url string) {
	if err := h.store.Remove(url); err != nil {
		h.logger.Warn("remove upload failed", zap.String("url", url), zap.Error(err))
	}
}
