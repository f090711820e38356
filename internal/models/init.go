package models

import (
	"strings"

	"github.com/lumen-optics/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// EnsureDefaultAdmin 初始化默认管理员账号，返回管理员用户
func EnsureDefaultAdmin(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@lumen-optics.local"
	}

	var existing User
	err := DB.Where("email = ?", email).Limit(1).Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing.ID != 0 {
		if existing.Role != "admin" {
			if err := DB.Model(&existing).Update("role", "admin").Error; err != nil {
				logger.Warnw("ensure_default_admin_role_failed", "user_id", existing.ID, "error", err)
			}
			existing.Role = "admin"
		}
		return &existing, nil
	}

	usingDefault := password == ""
	if usingDefault {
		password = "admin12345"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Store",
		LastName:     "Admin",
		Role:         "admin",
		Status:       "active",
	}
	if err := DB.Create(&admin).Error; err != nil {
		return nil, err
	}

	if usingDefault {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
	} else {
		logger.Infow("default_admin_created", "email", email)
	}
	return &admin, nil
}
