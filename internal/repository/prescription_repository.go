package repository

import (
	"errors"

	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// PrescriptionRepository 处方数据访问接口
type PrescriptionRepository interface {
	ListByUser(userID uint) ([]models.Prescription, error)
	GetByIDAndUser(id, userID uint) (*models.Prescription, error)
	Create(prescription *models.Prescription) error
	Update(prescription *models.Prescription) error
	Delete(id, userID uint) (int64, error)
	ClearDefault(userID uint, exceptID uint) error
	WithTx(tx *gorm.DB) PrescriptionRepository
}

// GormPrescriptionRepository GORM 实现
type GormPrescriptionRepository struct {
	db *gorm.DB
}

// NewPrescriptionRepository 创建处方仓库
func NewPrescriptionRepository(db *gorm.DB) *GormPrescriptionRepository {
	return &GormPrescriptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPrescriptionRepository) WithTx(tx *gorm.DB) PrescriptionRepository {
	if tx == nil {
		return r
	}
	return &GormPrescriptionRepository{db: tx}
}

// ListByUser 处方列表
func (r *GormPrescriptionRepository) ListByUser(userID uint) ([]models.Prescription, error) {
	var rows []models.Prescription
	if err := r.db.Where("user_id = ?", userID).Order("is_default DESC, created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByIDAndUser 获取用户处方
func (r *GormPrescriptionRepository) GetByIDAndUser(id, userID uint) (*models.Prescription, error) {
	var row models.Prescription
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Create 新增处方
func (r *GormPrescriptionRepository) Create(prescription *models.Prescription) error {
	return r.db.Create(prescription).Error
}

// Update 保存处方
func (r *GormPrescriptionRepository) Update(prescription *models.Prescription) error {
	return r.db.Save(prescription).Error
}

// Delete 删除处方
func (r *GormPrescriptionRepository) Delete(id, userID uint) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Prescription{})
	return result.RowsAffected, result.Error
}

// ClearDefault 取消其他默认处方
func (r *GormPrescriptionRepository) ClearDefault(userID uint, exceptID uint) error {
	query := r.db.Model(&models.Prescription{}).Where("user_id = ? AND is_default = ?", userID, true)
	if exceptID > 0 {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_default", false).Error
}
