package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lumen-optics/internal/cache"
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultProductPageSize = 20
	maxProductPageSize     = 100
	defaultReviewPageSize  = 10
	maxReviewPageSize      = 50
	defaultFeaturedLimit   = 8
	maxFeaturedLimit       = 20
	suggestionMinLength    = 2
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 20
)

var (
	slugInvalidPattern = regexp.MustCompile(`[^a-z0-9]+`)
	skuInvalidPattern  = regexp.MustCompile(`[^A-Z0-9]+`)
)

// CatalogService 商品目录服务
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	reviewRepo   repository.ReviewRepository
	cacheTTL     time.Duration
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, reviewRepo repository.ReviewRepository, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		reviewRepo:   reviewRepo,
		cacheTTL:     cacheTTL,
	}
}

// ProductQuery 商品列表查询参数
type ProductQuery struct {
	Page       int
	PerPage    int
	Search     string
	Category   string
	Brand      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	FrameType  string
	FrameShape string
	Color      string
	Featured   *bool
	InStock    bool
	SortBy     string
	SortOrder  string
}

// ProductPage 商品分页结果
type ProductPage struct {
	Products []models.Product
	Total    int64
	Page     int
	PerPage  int
}

// ListProducts 公开商品列表
func (s *CatalogService) ListProducts(query ProductQuery) (*ProductPage, error) {
	if query.PerPage < 0 || query.PerPage > maxProductPageSize || query.Page < 0 {
		return nil, newValidationError(ErrInvalidInput, fmt.Sprintf("per_page must be between 1 and %d", maxProductPageSize))
	}
	if query.MinPrice != nil && query.MaxPrice != nil && query.MinPrice.GreaterThan(*query.MaxPrice) {
		return nil, newValidationError(ErrInvalidInput, "min_price must not exceed max_price")
	}
	sortBy, err := normalizeProductSort(query.SortBy)
	if err != nil {
		return nil, err
	}
	page, perPage := normalizePage(query.Page, query.PerPage, defaultProductPageSize, maxProductPageSize)

	products, total, err := s.productRepo.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     perPage,
		Search:       sanitizePlainText(query.Search),
		CategorySlug: strings.TrimSpace(query.Category),
		BrandSlug:    strings.TrimSpace(query.Brand),
		MinPrice:     query.MinPrice,
		MaxPrice:     query.MaxPrice,
		FrameType:    strings.ToLower(strings.TrimSpace(query.FrameType)),
		FrameShape:   strings.ToLower(strings.TrimSpace(query.FrameShape)),
		Color:        strings.TrimSpace(query.Color),
		Featured:     query.Featured,
		InStock:      query.InStock,
		SortBy:       sortBy,
		SortDesc:     strings.EqualFold(strings.TrimSpace(query.SortOrder), "desc"),
		OnlyActive:   true,
	})
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: products, Total: total, Page: page, PerPage: perPage}, nil
}

func normalizeProductSort(raw string) (string, error) {
	sortBy := strings.ToLower(strings.TrimSpace(raw))
	switch sortBy {
	case "":
		return constants.ProductSortCreatedAt, nil
	case constants.ProductSortName,
		constants.ProductSortPrice,
		constants.ProductSortCreatedAt,
		constants.ProductSortUpdatedAt,
		constants.ProductSortPopularity:
		return sortBy, nil
	}
	return "", newValidationError(ErrInvalidInput, "sort_by must be one of: name, price, created_at, updated_at, popularity")
}

// GetProduct 公开商品详情
func (s *CatalogService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetProductBySlug 按 slug 获取公开商品
func (s *CatalogService) GetProductBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ProductReviews 商品评价与评分统计
type ProductReviews struct {
	Reviews []models.Review
	Total   int64
	Page    int
	PerPage int
	Rating  *repository.RatingSummary
}

// ListReviews 已审核的商品评价
func (s *CatalogService) ListReviews(productID uint, page, perPage int) (*ProductReviews, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}
	page, perPage = normalizePage(page, perPage, defaultReviewPageSize, maxReviewPageSize)
	reviews, total, err := s.reviewRepo.List(repository.ReviewListFilter{
		Page:         page,
		PageSize:     perPage,
		ProductID:    productID,
		OnlyApproved: true,
	})
	if err != nil {
		return nil, err
	}
	summary, err := s.reviewRepo.Summary(productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{Reviews: reviews, Total: total, Page: page, PerPage: perPage, Rating: summary}, nil
}

// CategoryTree 启用分类树（带缓存）
func (s *CatalogService) CategoryTree(ctx context.Context) ([]models.Category, error) {
	return cache.Remember(ctx, cache.CatalogCategoriesKey, s.cacheTTL, func() ([]models.Category, error) {
		categories, err := s.categoryRepo.ListActive()
		if err != nil {
			return nil, err
		}
		return buildCategoryTree(categories), nil
	})
}

// buildCategoryTree 将平铺分类组装为两级树，父分类不可用的子分类被丢弃
func buildCategoryTree(categories []models.Category) []models.Category {
	children := make(map[uint][]models.Category)
	roots := make([]models.Category, 0)
	for _, category := range categories {
		if category.ParentID == nil {
			roots = append(roots, category)
			continue
		}
		children[*category.ParentID] = append(children[*category.ParentID], category)
	}
	for i := range roots {
		roots[i].Children = children[roots[i].ID]
		if roots[i].Children == nil {
			roots[i].Children = []models.Category{}
		}
	}
	return roots
}

// Brands 启用品牌（带缓存）
func (s *CatalogService) Brands(ctx context.Context) ([]models.Brand, error) {
	return cache.Remember(ctx, cache.CatalogBrandsKey, s.cacheTTL, s.categoryRepo.ListActiveBrands)
}

// Featured 推荐商品
func (s *CatalogService) Featured(limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}
	return s.productRepo.ListFeatured(limit)
}

// SearchSuggestions 搜索建议：商品名 + "品牌名 (Brand)"
func (s *CatalogService) SearchSuggestions(query string, limit int) ([]string, error) {
	query = sanitizePlainText(query)
	if len([]rune(query)) < suggestionMinLength {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	products, err := s.productRepo.SearchNames(query, limit)
	if err != nil {
		return nil, err
	}
	brands, err := s.categoryRepo.SearchBrandNames(query, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(products)+len(brands))
	suggestions := make([]string, 0, limit)
	add := func(value string) {
		if len(suggestions) >= limit {
			return
		}
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		suggestions = append(suggestions, value)
	}
	for _, product := range products {
		add(product.Name)
	}
	for _, brand := range brands {
		add(fmt.Sprintf("%s (Brand)", brand))
	}
	return suggestions, nil
}

// ProductFilters 筛选项
type ProductFilters struct {
	FrameTypes  []string   `json:"frame_types"`
	FrameShapes []string   `json:"frame_shapes"`
	Colors      []string   `json:"colors"`
	PriceRange  PriceRange `json:"price_range"`
}

// PriceRange 价格区间
type PriceRange struct {
	Min models.Money `json:"min"`
	Max models.Money `json:"max"`
}

// Filters 可用筛选项（带缓存）
func (s *CatalogService) Filters(ctx context.Context) (*ProductFilters, error) {
	return cache.Remember(ctx, cache.CatalogFacetsKey, s.cacheTTL, func() (*ProductFilters, error) {
		facets, err := s.productRepo.Facets()
		if err != nil {
			return nil, err
		}
		return &ProductFilters{
			FrameTypes:  nonNilStrings(facets.FrameTypes),
			FrameShapes: nonNilStrings(facets.FrameShapes),
			Colors:      nonNilStrings(facets.Colors),
			PriceRange: PriceRange{
				Min: models.NewMoneyFromDecimal(facets.MinPrice),
				Max: models.NewMoneyFromDecimal(facets.MaxPrice),
			},
		}, nil
	})
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// SaveProductInput 管理端创建/更新商品输入（指针为空表示不修改）
type SaveProductInput struct {
	Name             *string
	SKU              *string
	Description      *string
	ShortDescription *string
	BasePrice        *decimal.Decimal
	SalePrice        *decimal.Decimal
	CategoryID       *uint
	Brand            *string
	FrameType        *string
	FrameShape       *string
	FrameMaterial    *string
	FrameColor       *string
	Gender           *string
	FrameWidth       *int
	LensWidth        *int
	BridgeWidth      *int
	TempleLength     *int
	StockQuantity    *int
	TrackInventory   *bool
	IsFeatured       *bool
	IsActive         *bool
	Images           []string
}

// CreateProduct 管理端创建商品，slug 由名称生成，未提供 SKU 时自动生成
func (s *CatalogService) CreateProduct(ctx context.Context, input SaveProductInput) (*models.Product, error) {
	name := ""
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	if name == "" {
		return nil, newValidationError(ErrInvalidInput, "name is required")
	}
	if input.BasePrice == nil || !input.BasePrice.IsPositive() {
		return nil, newValidationError(ErrInvalidInput, "price must be greater than zero")
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, newValidationError(ErrInvalidInput, "stock must not be negative")
	}

	now := time.Now()
	product := &models.Product{
		Name:           name,
		TrackInventory: true,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		slug, err := s.uniqueProductSlug(productRepo, name, 0)
		if err != nil {
			return err
		}
		product.Slug = slug

		sku := ""
		if input.SKU != nil {
			sku = strings.ToUpper(strings.TrimSpace(*input.SKU))
		}
		if sku == "" {
			sku, err = s.uniqueProductSKU(productRepo, generateProductSKU(name, now))
			if err != nil {
				return err
			}
		} else {
			count, err := productRepo.CountBySKU(sku, 0)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrSKUExists
			}
		}
		product.SKU = sku

		if err := s.applyProductInput(tx, product, input); err != nil {
			return err
		}
		if err := productRepo.Create(product); err != nil {
			return err
		}
		// 布尔字段的零值会被列默认值覆盖，创建后补写
		if !product.IsActive || !product.TrackInventory {
			return productRepo.Update(product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)
	logger.Infow("catalog_product_created", "product_id", product.ID, "slug", product.Slug, "sku", product.SKU)
	return s.productRepo.GetByID(product.ID, false)
}

// UpdateProduct 管理端更新商品
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, input SaveProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.BasePrice != nil && !input.BasePrice.IsPositive() {
		return nil, newValidationError(ErrInvalidInput, "price must be greater than zero")
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, newValidationError(ErrInvalidInput, "stock must not be negative")
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return newValidationError(ErrInvalidInput, "name must not be empty")
			}
			product.Name = name
		}
		if input.SKU != nil {
			sku := strings.ToUpper(strings.TrimSpace(*input.SKU))
			if sku != "" && sku != product.SKU {
				count, err := productRepo.CountBySKU(sku, product.ID)
				if err != nil {
					return err
				}
				if count > 0 {
					return ErrSKUExists
				}
				product.SKU = sku
			}
		}
		if err := s.applyProductInput(tx, product, input); err != nil {
			return err
		}
		product.UpdatedAt = time.Now()
		if err := productRepo.Update(product); err != nil {
			return err
		}
		if input.Images != nil {
			return productRepo.ReplaceImages(product.ID, product.Images)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)
	return s.productRepo.GetByID(product.ID, false)
}

// DeleteProduct 软删除：仅下架
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	affected, err := s.productRepo.Deactivate(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	s.invalidateCatalog(ctx)
	logger.Infow("catalog_product_deactivated", "product_id", id)
	return nil
}

func (s *CatalogService) applyProductInput(tx *gorm.DB, product *models.Product, input SaveProductInput) error {
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.ShortDescription != nil {
		product.ShortDescription = strings.TrimSpace(*input.ShortDescription)
	}
	if input.BasePrice != nil {
		product.BasePrice = models.NewMoneyFromDecimal(*input.BasePrice)
	}
	if input.SalePrice != nil {
		if input.SalePrice.IsPositive() {
			sale := models.NewMoneyFromDecimal(*input.SalePrice)
			product.SalePrice = &sale
		} else {
			product.SalePrice = nil
		}
	}
	if input.CategoryID != nil {
		if *input.CategoryID == 0 {
			product.CategoryID = nil
		} else {
			category, err := s.categoryRepo.WithTx(tx).GetByID(*input.CategoryID)
			if err != nil {
				return err
			}
			if category == nil {
				return newValidationError(ErrInvalidInput, "category not found")
			}
			categoryID := category.ID
			product.CategoryID = &categoryID
		}
	}
	if input.Brand != nil {
		brand, err := s.getOrCreateBrand(tx, *input.Brand)
		if err != nil {
			return err
		}
		if brand == nil {
			product.BrandID = nil
		} else {
			brandID := brand.ID
			product.BrandID = &brandID
		}
		product.Brand = nil
	}
	assignTrimmed(&product.FrameType, input.FrameType, true)
	assignTrimmed(&product.FrameShape, input.FrameShape, true)
	assignTrimmed(&product.FrameMaterial, input.FrameMaterial, false)
	assignTrimmed(&product.FrameColor, input.FrameColor, false)
	assignTrimmed(&product.Gender, input.Gender, true)
	if input.FrameWidth != nil {
		product.FrameWidth = input.FrameWidth
	}
	if input.LensWidth != nil {
		product.LensWidth = input.LensWidth
	}
	if input.BridgeWidth != nil {
		product.BridgeWidth = input.BridgeWidth
	}
	if input.TempleLength != nil {
		product.TempleLength = input.TempleLength
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.TrackInventory != nil {
		product.TrackInventory = *input.TrackInventory
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Images != nil {
		images := make([]models.ProductImage, 0, len(input.Images))
		for i, raw := range input.Images {
			url := strings.TrimSpace(raw)
			if url == "" {
				continue
			}
			images = append(images, models.ProductImage{
				ProductID: product.ID,
				ImageURL:  url,
				AltText:   product.Name,
				IsPrimary: i == 0,
				SortOrder: i,
			})
		}
		product.Images = images
	}
	return nil
}

func assignTrimmed(target *string, value *string, lower bool) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if lower {
		trimmed = strings.ToLower(trimmed)
	}
	*target = trimmed
}

// getOrCreateBrand 按名称查找品牌，不存在时创建；空名称表示清除品牌
func (s *CatalogService) getOrCreateBrand(tx *gorm.DB, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	repo := s.categoryRepo.WithTx(tx)
	brand, err := repo.GetBrandByName(name)
	if err != nil {
		return nil, err
	}
	if brand != nil {
		return brand, nil
	}
	brand = &models.Brand{Name: name, Slug: slugify(name), IsActive: true}
	if err := repo.CreateBrand(brand); err != nil {
		return nil, err
	}
	return brand, nil
}

func (s *CatalogService) uniqueProductSlug(repo repository.ProductRepository, name string, excludeID uint) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "product"
	}
	slug := base
	for counter := 1; ; counter++ {
		count, err := repo.CountBySlug(slug, excludeID)
		if err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

func (s *CatalogService) uniqueProductSKU(repo repository.ProductRepository, base string) (string, error) {
	sku := base
	for counter := 1; ; counter++ {
		count, err := repo.CountBySKU(sku, 0)
		if err != nil {
			return "", err
		}
		if count == 0 {
			return sku, nil
		}
		sku = fmt.Sprintf("%s-%d", base, counter)
	}
}

func (s *CatalogService) invalidateCatalog(ctx context.Context) {
	if err := cache.InvalidateCatalog(ctx); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}

// slugify 小写并将非字母数字替换为连字符
func slugify(raw string) string {
	return strings.Trim(slugInvalidPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "-"), "-")
}

func generateProductSKU(name string, now time.Time) string {
	base := skuInvalidPattern.ReplaceAllString(strings.ToUpper(name), "")
	if len(base) > 10 {
		base = base[:10]
	}
	if base == "" {
		base = "SKU"
	}
	return fmt.Sprintf("%s-%s", base, now.Format("20060102150405"))
}
