package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/service"
	"github.com/MorseWayne/content_shop/internal/storage"
)

// BlogHandler 博客相关的HTTP处理器
type BlogHandler struct {
	blogs  service.BlogService
	store  storage.Store
	logger *zap.Logger
}

// NewBlogHandler 创建博客处理器
func NewBlogHandler(blogs service.BlogService, store storage.Store, logger *zap.Logger) *BlogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogHandler{blogs: blogs, store: store, logger: logger}
}

// List GET /api/v1/blogs
func (h *BlogHandler) List(c *gin.Context) {
	var page domain.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		writeBindError(c, err)
		return
	}
	result, err := h.blogs.List(c.Request.Context(), page)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, result, requestID(c), "")
}

// Get GET /api/v1/blogs/:id
func (h *BlogHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	blog, err := h.blogs.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, blog, requestID(c), "")
}

// Create POST /api/v1/blogs
func (h *BlogHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req domain.BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	blog, err := h.blogs.Create(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.Created(c.Writer, blog, requestID(c), "")
}

// Update PUT /api/v1/blogs/:id，仅作者可修改
func (h *BlogHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	blog, err := h.blogs.Update(c.Request.Context(), identity, id, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp.OK(c.Writer, blog, requestID(c), "")
}

// Delete DELETE /api/v1/blogs/:id，仅作者可删除
func (h *BlogHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.blogs.Delete(c.Request.Context(), identity, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeDeleted(c)
}

// UploadImage 上传博客配图，返回可直接引用的 image_url
// POST /api/v1/blogs/upload-image
func (h *BlogHandler) UploadImage(c *gin.Context) {
	if _, ok := currentIdentity(c); !ok {
		return
	}
	url, ok := saveUpload(c, h.store, storage.BlogImageName(), storage.BlogImageTypes, h.logger)
	if !ok {
		return
	}
	resp.Created(c.Writer, gin.H{"image_url": url}, requestID(c), "")
}
