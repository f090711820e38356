package models

import (
	"time"
)

// TryOnSession 虚拟试戴保存记录
type TryOnSession struct {
	ID             uint      `gorm:"primarykey" json:"id"`                           // 主键
	SessionID      string    `gorm:"uniqueIndex;type:varchar(32);not null" json:"session_id"` // 会话ID（ULID）
	UserID         uint      `gorm:"index;not null" json:"user_id"`                  // 用户ID
	ProductID      uint      `gorm:"index;not null" json:"product_id"`               // 商品ID
	ResultImageURL string    `gorm:"type:text" json:"result_image_url"`              // 试戴结果图
	Settings       JSON      `gorm:"type:json" json:"settings"`                      // 试戴参数
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (TryOnSession) TableName() string {
	return "try_on_sessions"
}
