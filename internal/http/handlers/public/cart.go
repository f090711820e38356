package public

import (
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID           uint        `json:"product_id" binding:"required"`
	VariantID           uint        `json:"variant_id"`
	PrescriptionID      uint        `json:"prescription_id"`
	Quantity            int         `json:"quantity"`
	LensOptions         models.JSON `json:"lens_options"`
	FrameAdjustments    models.JSON `json:"frame_adjustments"`
	SpecialInstructions string      `json:"special_instructions"`
}

// UpdateCartItemRequest 更新购物车项请求
type UpdateCartItemRequest struct {
	Quantity            *int        `json:"quantity"`
	LensOptions         models.JSON `json:"lens_options"`
	FrameAdjustments    models.JSON `json:"frame_adjustments"`
	SpecialInstructions *string     `json:"special_instructions"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.CartService.List(uid)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, summary)
}

// GetCartCount 购物车商品数量
func (h *Handler) GetCartCount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.CartService.Count(uid)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	item, err := h.CartService.Add(service.AddCartItemInput{
		UserID:              uid,
		ProductID:           req.ProductID,
		VariantID:           req.VariantID,
		PrescriptionID:      req.PrescriptionID,
		Quantity:            quantity,
		LensOptions:         req.LensOptions,
		FrameAdjustments:    req.FrameAdjustments,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Created(c, "Item added to cart", item)
}

// UpdateCartItem 更新购物车项
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.CartService.Update(uid, itemID, service.UpdateCartItemInput{
		Quantity:            req.Quantity,
		LensOptions:         req.LensOptions,
		FrameAdjustments:    req.FrameAdjustments,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Cart item updated", item)
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CartService.Remove(uid, itemID); err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Item removed from cart", gin.H{"removed": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Cart cleared", gin.H{"cleared": true})
}

// ValidateCart 结算前校验
func (h *Handler) ValidateCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	violations, err := h.CartService.ValidateForCheckout(uid)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, gin.H{
		"valid":  len(violations) == 0,
		"issues": violations,
	})
}
