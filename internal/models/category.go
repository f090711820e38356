package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// JSON 类型定义，用于存储镜片选项、镜框调整与地址快照
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, j)
	case string:
		return json.Unmarshal([]byte(raw), j)
	default:
		return nil
	}
}

// StringArray 字符串数组类型，用于存储图片、标签等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, s)
	case string:
		return json.Unmarshal([]byte(raw), s)
	default:
		return nil
	}
}

// Category 商品分类
type Category struct {
	ID          uint           `gorm:"primarykey" json:"id"`                     // 主键
	ParentID    *uint          `gorm:"index" json:"parent_id"`                   // 父分类ID
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`   // 名称
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`         // 唯一标识
	Description string         `gorm:"type:text" json:"description"`             // 描述
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url"`       // 分类图片
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`      // 是否启用
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`        // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                               // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"` // 子分类
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// Brand 品牌
type Brand struct {
	ID          uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name        string         `gorm:"type:varchar(100);not null" json:"name"` // 名称
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`       // 唯一标识
	Description string         `gorm:"type:text" json:"description"`           // 描述
	LogoURL     string         `gorm:"type:varchar(500)" json:"logo_url"`      // 品牌标志
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`    // 是否启用
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Brand) TableName() string {
	return "brands"
}
