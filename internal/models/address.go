package models

import (
	"time"
)

// Address 用户地址
type Address struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                  // 主键
	UserID       uint      `gorm:"index;not null" json:"user_id"`                         // 用户ID
	Type         string    `gorm:"type:varchar(20);not null;default:'shipping'" json:"type"` // 类型（shipping/billing）
	FirstName    string    `gorm:"type:varchar(100);not null" json:"first_name"`          // 名
	LastName     string    `gorm:"type:varchar(100);not null" json:"last_name"`           // 姓
	Company      string    `gorm:"type:varchar(200)" json:"company"`                      // 公司
	AddressLine1 string    `gorm:"column:address_line_1;type:varchar(255);not null" json:"address_line_1"` // 地址行1
	AddressLine2 string    `gorm:"column:address_line_2;type:varchar(255)" json:"address_line_2"`          // 地址行2
	City         string    `gorm:"type:varchar(100);not null" json:"city"`                // 城市
	State        string    `gorm:"type:varchar(100);not null" json:"state"`               // 州/省
	PostalCode   string    `gorm:"type:varchar(20);not null" json:"postal_code"`          // 邮编
	Country      string    `gorm:"type:varchar(100);not null" json:"country"`             // 国家
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`                         // 电话
	IsDefault    bool      `gorm:"default:false;index" json:"is_default"`                 // 是否默认
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                            // 更新时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
