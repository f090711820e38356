package repository

import (
	"errors"
	"strings"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const effectivePriceExpr = "COALESCE(products.sale_price, products.base_price)"

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint, onlyActive bool) (*models.Product, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	GetVariant(productID, variantID uint) (*models.ProductVariant, error)
	ListFeatured(limit int) ([]models.Product, error)
	SearchNames(query string, limit int) ([]models.Product, error)
	Facets() (*ProductFacets, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	ReplaceImages(productID uint, images []models.ProductImage) error
	Deactivate(id uint) (int64, error)
	CountBySlug(slug string, excludeID uint) (int64, error)
	CountBySKU(sku string, excludeID uint) (int64, error)
	DecrementStock(productID uint, quantity int) (int64, error)
	IncrementStock(productID uint, quantity int) error
	DecrementVariantStock(variantID uint, quantity int) (int64, error)
	IncrementVariantStock(variantID uint, quantity int) error
	AdjustSalesCount(productID uint, delta int) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

func (r *GormProductRepository) withDetails(query *gorm.DB, onlyActive bool) *gorm.DB {
	query = query.Preload("Category").Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		})
	if onlyActive {
		return query.Preload("Variants", "is_active = ?", true)
	}
	return query.Preload("Variants")
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("products.is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{
			"products.name",
			"products.description",
			"products.short_description",
			"products.sku",
		})
		query = query.Where(condition, repeatLikeArgs(containsPattern(search), argCount)...)
	}
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		query = query.Where("products.category_id IN (?)", r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if slug := strings.TrimSpace(filter.BrandSlug); slug != "" {
		query = query.Where("products.brand_id IN (?)", r.db.Model(&models.Brand{}).Select("id").Where("slug = ?", slug))
	}
	if filter.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= ?", filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= ?", filter.MaxPrice.InexactFloat64())
	}
	if v := strings.TrimSpace(filter.FrameType); v != "" {
		query = query.Where("products.frame_type = ?", v)
	}
	if v := strings.TrimSpace(filter.FrameShape); v != "" {
		query = query.Where("products.frame_shape = ?", v)
	}
	if v := strings.TrimSpace(filter.Color); v != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"products.frame_color"})
		query = query.Where(condition, repeatLikeArgs(containsPattern(v), argCount)...)
	}
	if filter.Featured != nil {
		query = query.Where("products.is_featured = ?", *filter.Featured)
	}
	if filter.InStock {
		query = query.Where("(products.track_inventory = ? OR products.stock_quantity > ?)", false, 0)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.withDetails(query, filter.OnlyActive)
	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var products []models.Product
	if err := query.Order(productOrderClause(filter.SortBy, filter.SortDesc)).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productOrderClause(sortBy string, desc bool) string {
	direction := " ASC"
	if desc {
		direction = " DESC"
	}
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case constants.ProductSortName:
		return "products.name" + direction
	case constants.ProductSortPrice:
		return effectivePriceExpr + direction
	case constants.ProductSortUpdatedAt:
		return "products.updated_at" + direction
	case constants.ProductSortPopularity:
		return "products.sales_count DESC, products.id DESC"
	default:
		return "products.created_at" + direction
	}
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint, onlyActive bool) (*models.Product, error) {
	query := r.withDetails(r.db, onlyActive).Where("id = ?", id)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	query := r.withDetails(r.db, onlyActive).Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetVariant 获取商品下的变体
func (r *GormProductRepository) GetVariant(productID, variantID uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.Where("id = ? AND product_id = ?", variantID, productID).First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// ListFeatured 推荐商品
func (r *GormProductRepository) ListFeatured(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.withDetails(r.db, true).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// SearchNames 搜索建议（按名称匹配，附带品牌）
func (r *GormProductRepository) SearchNames(query string, limit int) ([]models.Product, error) {
	condition, argCount := buildLikeCondition(r.db, []string{"name"})
	var products []models.Product
	err := r.db.Preload("Brand").
		Select("id", "name", "slug", "brand_id").
		Where("is_active = ?", true).
		Where(condition, repeatLikeArgs(containsPattern(query), argCount)...).
		Order("name ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// Facets 汇总筛选维度
func (r *GormProductRepository) Facets() (*ProductFacets, error) {
	facets := &ProductFacets{}
	active := r.db.Model(&models.Product{}).Where("is_active = ?", true)

	if err := active.Session(&gorm.Session{}).Where("frame_type <> ''").
		Distinct().Order("frame_type").Pluck("frame_type", &facets.FrameTypes).Error; err != nil {
		return nil, err
	}
	if err := active.Session(&gorm.Session{}).Where("frame_shape <> ''").
		Distinct().Order("frame_shape").Pluck("frame_shape", &facets.FrameShapes).Error; err != nil {
		return nil, err
	}
	if err := active.Session(&gorm.Session{}).Where("frame_color <> ''").
		Distinct().Order("frame_color").Pluck("frame_color", &facets.Colors).Error; err != nil {
		return nil, err
	}

	var bounds struct {
		MinPrice decimal.NullDecimal
		MaxPrice decimal.NullDecimal
	}
	if err := active.Session(&gorm.Session{}).
		Select("MIN(" + effectivePriceExpr + ") AS min_price, MAX(" + effectivePriceExpr + ") AS max_price").
		Scan(&bounds).Error; err != nil {
		return nil, err
	}
	if bounds.MinPrice.Valid {
		facets.MinPrice = bounds.MinPrice.Decimal
	}
	if bounds.MaxPrice.Valid {
		facets.MaxPrice = bounds.MaxPrice.Decimal
	}
	return facets, nil
}

// Create 创建商品（含变体与图片）
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品基础字段
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit("Category", "Brand", "Variants", "Images").Save(product).Error
}

// ReplaceImages 替换商品图片
func (r *GormProductRepository) ReplaceImages(productID uint, images []models.ProductImage) error {
	if err := r.db.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ID = 0
		images[i].ProductID = productID
	}
	return r.db.Create(&images).Error
}

// Deactivate 软下架商品
func (r *GormProductRepository) Deactivate(id uint) (int64, error) {
	result := r.db.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	return result.RowsAffected, result.Error
}

// CountBySlug 统计 slug 数量
func (r *GormProductRepository) CountBySlug(slug string, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Unscoped().Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountBySKU 统计 SKU 数量
func (r *GormProductRepository) CountBySKU(sku string, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Unscoped().Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count, err
}

// DecrementStock 条件扣减商品库存，返回受影响行数（0 表示库存不足）
func (r *GormProductRepository) DecrementStock(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	return result.RowsAffected, result.Error
}

// IncrementStock 回补商品库存
func (r *GormProductRepository) IncrementStock(productID uint, quantity int) error {
	if productID == 0 || quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

// DecrementVariantStock 条件扣减变体库存
func (r *GormProductRepository) DecrementVariantStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	return result.RowsAffected, result.Error
}

// IncrementVariantStock 回补变体库存
func (r *GormProductRepository) IncrementVariantStock(variantID uint, quantity int) error {
	if variantID == 0 || quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

// AdjustSalesCount 调整销量
func (r *GormProductRepository) AdjustSalesCount(productID uint, delta int) error {
	if productID == 0 || delta == 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("sales_count", gorm.Expr("CASE WHEN sales_count + ? < 0 THEN 0 ELSE sales_count + ? END", delta, delta)).Error
}
