package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
)

// OrderHandler 订单相关的HTTP处理器，所有接口都需要登录
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{orders: orders, logger: logger}
}

// List GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var page domain.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		writeBindError(c, err)
		return
	}
	result, err := h.orders.List(c.Request.Context(), identity, page)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, result, requestID(c), "")
}

// Get GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), identity, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, order, requestID(c), "")
}

// Create POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	order, err := h.orders.Create(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.Created(c.Writer, order, requestID(c), "")
}

// Update PUT /api/v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	order, err := h.orders.Update(c.Request.Context(), identity, id, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, order, requestID(c), "")
}

// Delete DELETE /api/v1/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), identity, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeDeleted(c)
}
