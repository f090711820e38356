package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	EmailTakenByOther(email string, excludeID uint) (bool, error)
	TouchLastLogin(id uint, at time.Time) error
	RotatePassword(id uint, passwordHash string) error
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// firstOrNil 查询单条记录，不存在时返回 nil
func firstOrNil[T any](query *gorm.DB, conds ...interface{}) (*T, error) {
	var record T
	if err := query.First(&record, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByEmail 邮箱不区分大小写
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	return firstOrNil[models.User](r.db.Where("email = ?", normalizeEmail(email)))
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return firstOrNil[models.User](r.db, id)
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 保存资料字段
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// EmailTakenByOther 邮箱是否已被其他用户占用
func (r *GormUserRepository) EmailTakenByOther(email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.User{}).Where("email = ?", normalizeEmail(email))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// TouchLastLogin 只更新登录时间，不触碰其他列
func (r *GormUserRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// RotatePassword 写入新密码并原子递增 token_version，旧 token 随之失效
func (r *GormUserRepository) RotatePassword(id uint, passwordHash string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"token_version": gorm.Expr("token_version + 1"),
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
