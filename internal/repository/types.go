package repository

import "github.com/shopspring/decimal"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	Search       string
	CategorySlug string
	BrandSlug    string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FrameType    string
	FrameShape   string
	Color        string
	Featured     *bool
	InStock      bool
	SortBy       string
	SortDesc     bool
	OnlyActive   bool
}

// ReviewListFilter 查询评价列表的过滤条件
type ReviewListFilter struct {
	Page         int
	PageSize     int
	ProductID    uint
	OnlyApproved bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
}

// ProductFacets 商品筛选维度
type ProductFacets struct {
	FrameTypes  []string        `json:"frame_types"`
	FrameShapes []string        `json:"frame_shapes"`
	Colors      []string        `json:"colors"`
	MinPrice    decimal.Decimal `json:"min_price"`
	MaxPrice    decimal.Decimal `json:"max_price"`
}

// RatingSummary 评分统计
type RatingSummary struct {
	Average      float64     `json:"average_rating"`
	TotalReviews int64       `json:"total_reviews"`
	Distribution map[int]int `json:"rating_distribution"`
}
