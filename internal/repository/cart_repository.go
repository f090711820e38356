package repository

import (
	"errors"

	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetByIDAndUser(id, userID uint) (*models.CartItem, error)
	FindLine(userID, productID, variantID, prescriptionID uint) (*models.CartItem, error)
	Create(item *models.CartItem) error
	Update(item *models.CartItem) error
	DeleteByIDAndUser(id, userID uint) error
	ClearByUser(userID uint) error
	CountQuantity(userID uint) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) withRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Product").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		}).
		Preload("Variant").
		Preload("Prescription")
}

// ListByUser 获取用户购物车项
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.withRelations(r.db).Where("user_id = ?", userID).Order("created_at asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByIDAndUser 获取用户的购物车项
func (r *GormCartRepository) GetByIDAndUser(id, userID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.withRelations(r.db).Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindLine 按 (用户, 商品, 变体, 处方) 查找购物车行
func (r *GormCartRepository) FindLine(userID, productID, variantID, prescriptionID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where(
		"user_id = ? AND product_id = ? AND variant_id = ? AND prescription_id = ?",
		userID, productID, variantID, prescriptionID,
	).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 新增购物车行
func (r *GormCartRepository) Create(item *models.CartItem) error {
	return r.db.Omit("Product", "Variant", "Prescription").Create(item).Error
}

// Update 更新购物车行（数量与定制项）
func (r *GormCartRepository) Update(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	updates := map[string]interface{}{
		"quantity":             item.Quantity,
		"lens_options":         item.LensOptions,
		"frame_adjustments":    item.FrameAdjustments,
		"special_instructions": item.SpecialInstructions,
		"updated_at":           item.UpdatedAt,
	}
	return r.db.Model(&models.CartItem{}).Where("id = ?", item.ID).Updates(updates).Error
}

// DeleteByIDAndUser 删除购物车项
func (r *GormCartRepository) DeleteByIDAndUser(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{}).Error
}

// ClearByUser 清空购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// CountQuantity 统计购物车商品总件数
func (r *GormCartRepository) CountQuantity(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}
