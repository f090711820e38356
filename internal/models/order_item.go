package models

import (
	"time"
)

// OrderItem 订单项（下单时的商品快照，创建后不可变）
type OrderItem struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID             uint      `gorm:"index;not null" json:"order_id"`                             // 订单ID
	ProductID           uint      `gorm:"index;not null" json:"product_id"`                           // 商品ID
	VariantID           uint      `gorm:"not null;default:0" json:"variant_id"`                       // 变体ID
	PrescriptionID      uint      `gorm:"not null;default:0" json:"prescription_id"`                  // 处方ID
	ProductName         string    `gorm:"type:varchar(200);not null" json:"product_name"`             // 商品名称快照
	ProductSKU          string    `gorm:"type:varchar(100)" json:"product_sku"`                       // 商品编码快照
	ProductImage        string    `gorm:"type:varchar(500)" json:"product_image"`                     // 商品图片快照
	UnitPrice           Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`    // 单价
	Quantity            int       `gorm:"not null" json:"quantity"`                                   // 数量
	TotalPrice          Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`   // 小计
	LensOptions         JSON      `gorm:"type:json" json:"lens_options"`                              // 镜片选项快照
	FrameAdjustments    JSON      `gorm:"type:json" json:"frame_adjustments"`                         // 镜框调整快照
	SpecialInstructions string    `gorm:"type:text" json:"special_instructions"`                      // 特殊说明
	CreatedAt           time.Time `gorm:"index" json:"created_at"`                                    // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
