package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 眼镜商品
type Product struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Name             string         `gorm:"type:varchar(200);not null;index" json:"name"`               // 名称
	Slug             string         `gorm:"uniqueIndex;not null" json:"slug"`                           // 唯一标识
	SKU              string         `gorm:"uniqueIndex;not null" json:"sku"`                            // 商品编码
	Description      string         `gorm:"type:text" json:"description"`                               // 详情
	ShortDescription string         `gorm:"type:varchar(500)" json:"short_description"`                 // 简介
	BasePrice        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`    // 原价
	SalePrice        *Money         `gorm:"type:decimal(20,2)" json:"sale_price"`                       // 促销价
	CategoryID       *uint          `gorm:"index" json:"category_id"`                                   // 分类ID
	BrandID          *uint          `gorm:"index" json:"brand_id"`                                      // 品牌ID
	FrameType        string         `gorm:"type:varchar(40);index" json:"frame_type"`                   // 镜框类型（eyeglasses/sunglasses）
	FrameShape       string         `gorm:"type:varchar(40);index" json:"frame_shape"`                  // 镜框形状
	FrameMaterial    string         `gorm:"type:varchar(60)" json:"frame_material"`                     // 镜框材质
	FrameColor       string         `gorm:"type:varchar(60);index" json:"frame_color"`                  // 镜框颜色
	Gender           string         `gorm:"type:varchar(20)" json:"gender"`                             // 适用人群
	FrameWidth       *int           `json:"frame_width"`                                                // 镜框宽度（mm）
	LensWidth        *int           `json:"lens_width"`                                                 // 镜片宽度（mm）
	BridgeWidth      *int           `json:"bridge_width"`                                               // 鼻梁宽度（mm）
	TempleLength     *int           `json:"temple_length"`                                              // 镜腿长度（mm）
	StockQuantity    int            `gorm:"not null;default:0" json:"stock_quantity"`                   // 库存数量
	TrackInventory   bool           `gorm:"not null;default:true" json:"track_inventory"`               // 是否跟踪库存
	IsActive         bool           `gorm:"default:true;index" json:"is_active"`                        // 是否上架
	IsFeatured       bool           `gorm:"default:false;index" json:"is_featured"`                     // 是否推荐
	SalesCount       int            `gorm:"not null;default:0" json:"sales_count"`                      // 销量（用于热度排序）
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	// 关联
	Category *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类
	Brand    *Brand          `gorm:"foreignKey:BrandID" json:"brand,omitempty"`       // 品牌
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`  // 变体
	Images   []ProductImage  `gorm:"foreignKey:ProductID" json:"images,omitempty"`    // 图片
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 当前售价（有促销价时取促销价）
func (p *Product) EffectivePrice() Money {
	if p == nil {
		return Money{}
	}
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.BasePrice
}

// PrimaryImageURL 主图地址
func (p *Product) PrimaryImageURL() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	return p.Images[0].ImageURL
}

// IsEyewear 是否为可试戴的眼镜类商品
func (p *Product) IsEyewear() bool {
	if p == nil {
		return false
	}
	return p.FrameType == "eyeglasses" || p.FrameType == "sunglasses"
}

// ProductVariant 商品变体（颜色/尺寸）
type ProductVariant struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	ProductID       uint           `gorm:"not null;index" json:"product_id"`                              // 商品ID
	Name            string         `gorm:"type:varchar(100);not null" json:"name"`                        // 名称
	SKU             string         `gorm:"uniqueIndex;not null" json:"sku"`                               // 变体编码
	Color           string         `gorm:"type:varchar(60)" json:"color"`                                 // 颜色
	Size            string         `gorm:"type:varchar(20)" json:"size"`                                  // 尺寸
	PriceAdjustment Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_adjustment"` // 价格调整
	StockQuantity   int            `gorm:"not null;default:0" json:"stock_quantity"`                      // 库存数量
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`                           // 是否启用
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// ProductImage 商品图片
type ProductImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`                 // 主键
	ProductID uint      `gorm:"not null;index" json:"product_id"`     // 商品ID
	ImageURL  string    `gorm:"type:varchar(500);not null" json:"url"` // 图片地址
	AltText   string    `gorm:"type:varchar(200)" json:"alt_text"`    // 替代文本
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`      // 是否主图
	SortOrder int       `gorm:"default:0" json:"sort_order"`          // 排序
	CreatedAt time.Time `json:"created_at"`                           // 创建时间
}

// TableName 指定表名
func (ProductImage) TableName() string {
	return "product_images"
}

// Review 商品评价
type Review struct {
	ID         uint           `gorm:"primarykey" json:"id"`                      // 主键
	ProductID  uint           `gorm:"not null;index" json:"product_id"`          // 商品ID
	UserID     uint           `gorm:"not null;index" json:"user_id"`             // 用户ID
	Rating     int            `gorm:"not null" json:"rating"`                    // 评分 1-5
	Title      string         `gorm:"type:varchar(200)" json:"title"`            // 标题
	Comment    string         `gorm:"type:text" json:"comment"`                  // 内容
	IsApproved bool           `gorm:"default:false;index" json:"is_approved"`    // 是否审核通过
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 评价用户
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}
