package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
)

// ProductHandler 商品相关的HTTP处理器
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler 创建商品处理器
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{products: products, logger: logger}
}

// ListProducts 分页查询，支持 keyword 与 owner_id 过滤
// GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req domain.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}
	result, err := h.products.ListProducts(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, result, requestID(c), "")
}

// GetProduct GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, product, requestID(c), "")
}

// CreateProduct POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	product, err := h.products.CreateProduct(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.Created(c.Writer, product, requestID(c), "")
}

// UpdateProduct PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	product, err := h.products.UpdateProduct(c.Request.Context(), identity, id, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, product, requestID(c), "")
}

// DeleteProduct DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), identity, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeDeleted(c)
}
