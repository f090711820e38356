package models

import (
	"time"
)

// CartItem 购物车项
// (用户, 商品, 变体, 处方) 唯一，变体/处方为 0 表示未选择
type CartItem struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                                         // 主键
	UserID              uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"user_id"`                            // 用户ID
	ProductID           uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`                         // 商品ID
	VariantID           uint      `gorm:"not null;default:0;uniqueIndex:idx_cart_line" json:"variant_id"`               // 变体ID
	PrescriptionID      uint      `gorm:"not null;default:0;uniqueIndex:idx_cart_line" json:"prescription_id"`          // 处方ID
	Quantity            int       `gorm:"not null" json:"quantity"`                                                     // 数量
	LensOptions         JSON      `gorm:"type:json" json:"lens_options"`                                                // 镜片选项
	FrameAdjustments    JSON      `gorm:"type:json" json:"frame_adjustments"`                                           // 镜框调整
	SpecialInstructions string    `gorm:"type:text" json:"special_instructions"`                                        // 特殊说明
	CreatedAt           time.Time `gorm:"index" json:"created_at"`                                                      // 创建时间
	UpdatedAt           time.Time `gorm:"index" json:"updated_at"`                                                      // 更新时间

	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`           // 关联商品
	Variant      *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`           // 关联变体
	Prescription *Prescription   `gorm:"foreignKey:PrescriptionID" json:"prescription,omitempty"` // 关联处方
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// UnitPrice 单价（商品售价 + 变体调整）
func (c *CartItem) UnitPrice() Money {
	if c == nil || c.Product == nil {
		return Money{}
	}
	price := c.Product.EffectivePrice().Decimal
	if c.Variant != nil {
		price = price.Add(c.Variant.PriceAdjustment.Decimal)
	}
	return NewMoneyFromDecimal(price)
}

// LineTotal 行小计
func (c *CartItem) LineTotal() Money {
	return c.UnitPrice().Times(c.Quantity)
}
