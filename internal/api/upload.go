package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/resp"
	"github.com/MorseWayne/content_shop/internal/storage"
)

// uploadField multipart 表单中的文件字段
const uploadField = "file"

// saveUpload 读取 multipart 文件并交给存储层校验保存，失败时已写出响应
func saveUpload(c *gin.Context, store storage.Store, name string, allowed []string, logger *zap.Logger) (string, bool) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "file is required", requestID(c), "")
		return "", false
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, logger, err)
		return "", false
	}
	defer f.Close()

	url, err := store.Save(name, f, allowed)
	if err != nil {
		writeError(c, logger, err)
		return "", false
	}
	return url, true
}
