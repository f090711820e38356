package admin

import (
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaveProductRequest 创建/更新商品请求（字段缺省表示不修改）
type SaveProductRequest struct {
	Name             *string          `json:"name"`
	SKU              *string          `json:"sku"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"short_description"`
	BasePrice        *decimal.Decimal `json:"base_price"`
	SalePrice        *decimal.Decimal `json:"sale_price"`
	CategoryID       *uint            `json:"category_id"`
	Brand            *string          `json:"brand"`
	FrameType        *string          `json:"frame_type"`
	FrameShape       *string          `json:"frame_shape"`
	FrameMaterial    *string          `json:"frame_material"`
	FrameColor       *string          `json:"frame_color"`
	Gender           *string          `json:"gender"`
	FrameWidth       *int             `json:"frame_width"`
	LensWidth        *int             `json:"lens_width"`
	BridgeWidth      *int             `json:"bridge_width"`
	TempleLength     *int             `json:"temple_length"`
	StockQuantity    *int             `json:"stock_quantity"`
	TrackInventory   *bool            `json:"track_inventory"`
	IsFeatured       *bool            `json:"is_featured"`
	IsActive         *bool            `json:"is_active"`
	Images           []string         `json:"images"`
}

func (r SaveProductRequest) toInput() service.SaveProductInput {
	return service.SaveProductInput{
		Name:             r.Name,
		SKU:              r.SKU,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		BasePrice:        r.BasePrice,
		SalePrice:        r.SalePrice,
		CategoryID:       r.CategoryID,
		Brand:            r.Brand,
		FrameType:        r.FrameType,
		FrameShape:       r.FrameShape,
		FrameMaterial:    r.FrameMaterial,
		FrameColor:       r.FrameColor,
		Gender:           r.Gender,
		FrameWidth:       r.FrameWidth,
		LensWidth:        r.LensWidth,
		BridgeWidth:      r.BridgeWidth,
		TempleLength:     r.TempleLength,
		StockQuantity:    r.StockQuantity,
		TrackInventory:   r.TrackInventory,
		IsFeatured:       r.IsFeatured,
		IsActive:         r.IsActive,
		Images:           r.Images,
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.CatalogService.CreateProduct(c.Request.Context(), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	operatorID, _ := c.Get("user_id")
	requestLog(c).Infow("admin_product_created", "operator_id", operatorID, "product_id", product.ID, "sku", product.SKU)
	response.Created(c, "Product created successfully", product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.CatalogService.UpdateProduct(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Product updated successfully", product)
}

// DeleteProduct 下架商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Product deleted successfully", gin.H{"deleted": true})
}
