package repository

import (
	"errors"

	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 地址数据访问接口
type AddressRepository interface {
	ListByUser(userID uint, addressType string) ([]models.Address, error)
	GetByIDAndUser(id, userID uint) (*models.Address, error)
	Create(address *models.Address) error
	Update(address *models.Address) error
	Delete(id, userID uint) (int64, error)
	ClearDefault(userID uint, addressType string, exceptID uint) error
	WithTx(tx *gorm.DB) AddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// ListByUser 地址列表（默认地址优先）
func (r *GormAddressRepository) ListByUser(userID uint, addressType string) ([]models.Address, error) {
	query := r.db.Where("user_id = ?", userID)
	if addressType != "" {
		query = query.Where("type = ?", addressType)
	}
	var addresses []models.Address
	if err := query.Order("is_default DESC, created_at DESC, id DESC").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetByIDAndUser 获取用户地址
func (r *GormAddressRepository) GetByIDAndUser(id, userID uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// Create 新增地址
func (r *GormAddressRepository) Create(address *models.Address) error {
	return r.db.Create(address).Error
}

// Update 保存地址
func (r *GormAddressRepository) Update(address *models.Address) error {
	return r.db.Save(address).Error
}

// Delete 删除地址
func (r *GormAddressRepository) Delete(id, userID uint) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	return result.RowsAffected, result.Error
}

// ClearDefault 取消同类型的其他默认地址
func (r *GormAddressRepository) ClearDefault(userID uint, addressType string, exceptID uint) error {
	query := r.db.Model(&models.Address{}).
		Where("user_id = ? AND type = ? AND is_default = ?", userID, addressType, true)
	if exceptID > 0 {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_default", false).Error
}
