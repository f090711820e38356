package response

import (
	"github.com/gin-gonic/gin"
)

// Response 统一成功响应结构
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码
	Message    string      `json:"message"`     // 提示消息
	Data       interface{} `json:"data"`        // 数据内容
}

// PageResponse 分页响应结构
type PageResponse struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// BuildPagination 生成分页信息
func BuildPagination(page, perPage int, total int64) Pagination {
	totalPages := int64(0)
	if perPage > 0 {
		totalPages = (total + int64(perPage) - 1) / int64(perPage)
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMsg(c, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(200, Response{
		StatusCode: CodeOK,
		Message:    msg,
		Data:       data,
	})
}

// Created 201 响应
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(201, Response{
		StatusCode: CodeOK,
		Message:    msg,
		Data:       data,
	})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(200, PageResponse{
		StatusCode: CodeOK,
		Message:    "success",
		Data:       data,
		Pagination: pagination,
	})
}

// Error 错误响应，HTTP 状态与业务码一致
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithFields(c, statusCode, msg, nil, nil)
}

// ErrorWithDetails 错误响应（附带字段级错误）
func ErrorWithDetails(c *gin.Context, statusCode int, msg string, details []string) {
	ErrorWithFields(c, statusCode, msg, details, nil)
}

// ErrorWithFields 错误响应（附带字段级错误与额外字段）
func ErrorWithFields(c *gin.Context, statusCode int, msg string, details []string, extra gin.H) {
	body := gin.H{
		"status_code": statusCode,
		"error":       msg,
	}
	if len(details) > 0 {
		body["errors"] = details
	}
	for key, value := range extra {
		if _, exists := body[key]; !exists {
			body[key] = value
		}
	}
	if requestID := requestIDFrom(c); requestID != "" {
		body["request_id"] = requestID
	}
	c.AbortWithStatusJSON(statusCode, body)
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}

func requestIDFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
