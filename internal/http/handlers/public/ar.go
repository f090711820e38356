package public

import (
	"strconv"
	"strings"

	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveTryOnRequest 保存试戴结果请求
type SaveTryOnRequest struct {
	ProductID    uint        `json:"product_id" binding:"required"`
	TryOnImage   string      `json:"try_on_image" binding:"required"`
	UserSettings models.JSON `json:"user_settings"`
}

// TryOn 虚拟试戴
func (h *Handler) TryOn(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseFormUint(c, "product_id")
	if !ok {
		return
	}
	image, err := c.FormFile("user_image")
	if err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "User image is required", nil)
		return
	}
	result, err := h.ARService.TryOn(c.Request.Context(), uid, productID, image)
	if err != nil {
		respondWithMappedError(c, err, arErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Virtual try-on completed successfully", result)
}

// DetectFace 人脸检测
func (h *Handler) DetectFace(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}
	image, err := c.FormFile("image")
	if err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "Image is required", nil)
		return
	}
	result, err := h.ARService.DetectFace(c.Request.Context(), image)
	if err != nil {
		respondWithMappedError(c, err, arErrorRules)
		return
	}
	response.Success(c, result)
}

// ProductCompatibility 商品试戴兼容性
func (h *Handler) ProductCompatibility(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.ARService.CheckCompatibility(productID)
	if err != nil {
		respondWithMappedError(c, err, arErrorRules)
		return
	}
	response.Success(c, result)
}

// SaveTryOn 保存试戴结果
func (h *Handler) SaveTryOn(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req SaveTryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := h.ARService.SaveTryOn(uid, service.SaveTryOnInput{
		ProductID:  req.ProductID,
		TryOnImage: req.TryOnImage,
		Settings:   req.UserSettings,
	})
	if err != nil {
		respondWithMappedError(c, err, arErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Try-on session saved successfully", gin.H{
		"session_id": session.SessionID,
		"product_id": session.ProductID,
		"saved_at":   session.CreatedAt,
	})
}

func parseFormUint(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.PostForm(name)), 10, 64)
	if err != nil || value == 0 {
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid "+name, nil)
		return 0, false
	}
	return uint(value), true
}
