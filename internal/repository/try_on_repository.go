package repository

import (
	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// TryOnRepository 试戴记录数据访问接口
type TryOnRepository interface {
	Create(session *models.TryOnSession) error
	ListByUser(userID uint, limit int) ([]models.TryOnSession, error)
}

// GormTryOnRepository GORM 实现
type GormTryOnRepository struct {
	db *gorm.DB
}

// NewTryOnRepository 创建试戴记录仓库
func NewTryOnRepository(db *gorm.DB) *GormTryOnRepository {
	return &GormTryOnRepository{db: db}
}

// Create 保存试戴记录
func (r *GormTryOnRepository) Create(session *models.TryOnSession) error {
	return r.db.Create(session).Error
}

// ListByUser 最近的试戴记录
func (r *GormTryOnRepository) ListByUser(userID uint, limit int) ([]models.TryOnSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.TryOnSession
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
