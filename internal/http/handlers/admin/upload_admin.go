package admin

import (
	"path/filepath"

	"github.com/lumen-optics/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UploadProductImage 上传商品图片
func (h *Handler) UploadProductImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "Image file is required", nil)
		return
	}
	url, err := h.UploadService.SaveProductImage(file)
	if err != nil {
		respondWithMappedError(c, err, uploadErrorRules)
		return
	}
	response.Created(c, "Image uploaded successfully", gin.H{
		"url":      url,
		"filename": filepath.Base(url),
		"size":     file.Size,
	})
}

// DeleteProductImage 删除商品图片
func (h *Handler) DeleteProductImage(c *gin.Context) {
	if err := h.UploadService.DeleteProductImage(c.Param("filename")); err != nil {
		respondWithMappedError(c, err, uploadErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Image deleted successfully", gin.H{"deleted": true})
}
