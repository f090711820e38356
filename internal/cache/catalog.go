package cache

import (
	"context"
	"time"

	"github.com/lumen-optics/internal/logger"
)

// 商品目录缓存键
const (
	CatalogFacetsKey     = "catalog:facets"
	CatalogCategoriesKey = "catalog:categories"
	CatalogBrandsKey     = "catalog:brands"
)

// Remember 读穿缓存：命中直接返回，否则调用 load 并回写。缓存故障只记日志
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	hit, err := GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warnw("cache_read_failed", "key", key, "error", err)
	}
	if hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := SetJSON(ctx, key, value, ttl); err != nil {
		logger.Warnw("cache_write_failed", "key", key, "error", err)
	}
	return value, nil
}

// InvalidateCatalog 商品变更后清理目录缓存
func InvalidateCatalog(ctx context.Context) error {
	return Del(ctx, CatalogFacetsKey, CatalogCategoriesKey, CatalogBrandsKey)
}
