package repository

import (
	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	List(filter ReviewListFilter) ([]models.Review, int64, error)
	Summary(productID uint) (*RatingSummary, error)
	Create(review *models.Review) error
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) scoped(filter ReviewListFilter) *gorm.DB {
	query := r.db.Model(&models.Review{}).Where("product_id = ?", filter.ProductID)
	if filter.OnlyApproved {
		query = query.Where("is_approved = ?", true)
	}
	return query
}

// List 评价列表（最新优先）
func (r *GormReviewRepository) List(filter ReviewListFilter) ([]models.Review, int64, error) {
	query := r.scoped(filter)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	query = query.Preload("User").Scopes(paginate(filter.Page, filter.PageSize))
	if err := query.Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Summary 已审核评价的评分统计
func (r *GormReviewRepository) Summary(productID uint) (*RatingSummary, error) {
	type bucket struct {
		Rating int
		Total  int
	}
	var buckets []bucket
	err := r.scoped(ReviewListFilter{ProductID: productID, OnlyApproved: true}).
		Select("rating, COUNT(*) AS total").
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	summary := &RatingSummary{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	weighted := 0
	for _, b := range buckets {
		if b.Rating < 1 || b.Rating > 5 {
			continue
		}
		summary.Distribution[b.Rating] = b.Total
		summary.TotalReviews += int64(b.Total)
		weighted += b.Rating * b.Total
	}
	if summary.TotalReviews > 0 {
		summary.Average = float64(weighted) / float64(summary.TotalReviews)
	}
	return summary, nil
}

// Create 新增评价
func (r *GormReviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}
