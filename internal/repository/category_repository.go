package repository

import (
	"errors"
	"strings"

	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类与品牌数据访问接口
type CategoryRepository interface {
	ListActive() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	Create(category *models.Category) error
	CountBySlug(slug string, excludeID uint) (int64, error)
	ListActiveBrands() ([]models.Brand, error)
	GetBrandByID(id uint) (*models.Brand, error)
	GetBrandByName(name string) (*models.Brand, error)
	SearchBrandNames(query string, limit int) ([]string, error)
	CreateBrand(brand *models.Brand) error
	WithTx(tx *gorm.DB) CategoryRepository
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCategoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	if tx == nil {
		return r
	}
	return &GormCategoryRepository{db: tx}
}

// ListActive 启用的分类（平铺，按排序权重）
func (r *GormCategoryRepository) ListActive() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Where("is_active = ?", true).Order("sort_order ASC, name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID 根据 ID 获取分类
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetBySlug 根据 slug 获取启用的分类
func (r *GormCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("slug = ? AND is_active = ?", slug, true).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// Create 创建分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// CountBySlug 统计 slug 数量
func (r *GormCategoryRepository) CountBySlug(slug string, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListActiveBrands 启用的品牌
func (r *GormCategoryRepository) ListActiveBrands() ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.db.Where("is_active = ?", true).Order("name ASC, id ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

// GetBrandByID 根据 ID 获取品牌
func (r *GormCategoryRepository) GetBrandByID(id uint) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.First(&brand, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}

// GetBrandByName 按名称查找品牌（忽略大小写）
func (r *GormCategoryRepository) GetBrandByName(name string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&brand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}

// SearchBrandNames 按名称模糊匹配启用品牌
func (r *GormCategoryRepository) SearchBrandNames(query string, limit int) ([]string, error) {
	condition, argCount := buildLikeCondition(r.db, []string{"name"})
	var names []string
	err := r.db.Model(&models.Brand{}).
		Where("is_active = ?", true).
		Where(condition, repeatLikeArgs(containsPattern(query), argCount)...).
		Order("name ASC").
		Limit(limit).
		Pluck("name", &names).Error
	return names, err
}

// CreateBrand 创建品牌
func (r *GormCategoryRepository) CreateBrand(brand *models.Brand) error {
	return r.db.Create(brand).Error
}
