package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`                   // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                                   // 密码哈希（不返回给前端）
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`                 // 名
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`                  // 姓
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`                       // 手机号
	DateOfBirth  *time.Time     `json:"date_of_birth"`                                       // 出生日期
	Role         string         `gorm:"type:varchar(20);default:'customer'" json:"role"`     // 角色
	Status       string         `gorm:"default:'active'" json:"status"`                      // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                         // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                                       // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// FullName 用户全名
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}
