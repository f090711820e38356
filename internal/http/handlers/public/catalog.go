package public

import (
	"strconv"
	"strings"

	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, perPage, ok := handlershared.QueryPage(c)
	if !ok {
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid pagination parameters", nil)
		return
	}
	query := service.ProductQuery{
		Page:       page,
		PerPage:    perPage,
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		Brand:      c.Query("brand"),
		FrameType:  c.Query("frame_type"),
		FrameShape: c.Query("frame_shape"),
		Color:      c.Query("color"),
		InStock:    parseBoolQuery(c.Query("in_stock")),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
	}
	var err error
	if query.MinPrice, err = parseDecimalQuery(c.Query("min_price")); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid min_price", nil)
		return
	}
	if query.MaxPrice, err = parseDecimalQuery(c.Query("max_price")); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid max_price", nil)
		return
	}
	if raw := strings.TrimSpace(c.Query("featured")); raw != "" {
		featured := parseBoolQuery(raw)
		query.Featured = &featured
	}

	result, err := h.CatalogService.ListProducts(query)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithPage(c, result.Products, response.BuildPagination(result.Page, result.PerPage, result.Total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.CatalogService.GetProduct(id)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, product)
}

// GetProductBySlug 按 slug 获取商品
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.CatalogService.GetProductBySlug(c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, product)
}

// ListProductReviews 商品评价
func (h *Handler) ListProductReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, perPage, ok := handlershared.QueryPage(c)
	if !ok {
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid pagination parameters", nil)
		return
	}
	result, err := h.CatalogService.ListReviews(id, page, perPage)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	c.JSON(200, gin.H{
		"status_code":    response.CodeOK,
		"message":        "success",
		"data":           result.Reviews,
		"rating_summary": result.Rating,
		"pagination":     response.BuildPagination(result.Page, result.PerPage, result.Total),
	})
}

// ListCategories 分类树
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CatalogService.CategoryTree(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, categories)
}

// ListBrands 品牌列表
func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.CatalogService.Brands(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, brands)
}

// ListFeaturedProducts 推荐商品
func (h *Handler) ListFeaturedProducts(c *gin.Context) {
	limit, _ := handlershared.QueryInt(c, "limit", 0)
	products, err := h.CatalogService.Featured(limit)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, products)
}

// SearchSuggestions 搜索联想
func (h *Handler) SearchSuggestions(c *gin.Context) {
	limit, _ := handlershared.QueryInt(c, "limit", 0)
	suggestions, err := h.CatalogService.SearchSuggestions(c.Query("q"), limit)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, suggestions)
}

// ProductFilters 可用筛选项
func (h *Handler) ProductFilters(c *gin.Context) {
	filters, err := h.CatalogService.Filters(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, filters)
}

func parseBoolQuery(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}

func parseDecimalQuery(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	if value.IsNegative() {
		return nil, service.ErrInvalidAmount
	}
	return &value, nil
}
