package shared

import (
	"strconv"
	"strings"

	"github.com/lumen-optics/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserIDKey 鉴权中间件写入的用户 ID
	ContextUserIDKey = "user_id"
	// ContextUserRoleKey 鉴权中间件写入的账号角色
	ContextUserRoleKey = "user_role"
)

// GetContextUint 从上下文读取 uint 值并统一处理错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondErrorWithMsg(c, response.CodeUnauthorized, "Authentication required", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondErrorWithMsg(c, response.CodeBadRequest, "Invalid "+key, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondErrorWithMsg(c, response.CodeBadRequest, "Invalid "+key, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondErrorWithMsg(c, response.CodeInternal, "Internal server error", nil)
		return 0, false
	}
}

// GetUserID 读取当前用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextUserIDKey)
}

// ParseUintParam 解析路径中的正整数 ID
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondErrorWithMsg(c, response.CodeBadRequest, "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
