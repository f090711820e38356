package shared

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// QueryInt 读取整数查询参数，缺省或非法时返回默认值与 false。
func QueryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def, false
	}
	return value, true
}

// QueryPage 读取 page/per_page 参数（兼容 page_size），范围由 service 层校验。
func QueryPage(c *gin.Context) (page int, perPage int, ok bool) {
	page, okPage := QueryInt(c, "page", 0)
	perPageKey := "per_page"
	if strings.TrimSpace(c.Query(perPageKey)) == "" && strings.TrimSpace(c.Query("page_size")) != "" {
		perPageKey = "page_size"
	}
	perPage, okSize := QueryInt(c, perPageKey, 0)
	return page, perPage, okPage && okSize
}
