package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
)

// NotificationHandler 站内通知
type NotificationHandler struct {
	notifications service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications service.NotificationService, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}
	result, err := h.notifications.List(c.Request.Context(), identity, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, result, requestID(c), "")
}

// Send POST /api/v1/notifications
func (h *NotificationHandler) Send(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	n, err := h.notifications.Send(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.Created(c.Writer, n, requestID(c), "")
}

// MarkRead PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.notifications.MarkRead(c.Request.Context(), identity, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, n, requestID(c), "")
}
