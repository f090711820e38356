package shared

import (
	"errors"

	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target  error
	Code    int
	Message string
}

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondErrorWithMsg 返回错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"path", c.FullPath(),
			"error", err,
		)
	}
	response.Error(c, code, msg)
}

// RespondBindError 请求体解析失败
func RespondBindError(c *gin.Context, err error) {
	RequestLog(c).Debugw("handler_bind_failed", "path", c.FullPath(), "error", err)
	response.ErrorWithDetails(c, response.CodeBadRequest, "Invalid request body", []string{err.Error()})
}

// RespondMappedError 按规则表映射业务错误；未命中时记录日志并返回通用错误。
func RespondMappedError(c *gin.Context, err error, rules []MappedError) {
	for _, rule := range rules {
		if !errors.Is(err, rule.Target) {
			continue
		}
		msg := rule.Message
		if msg == "" {
			msg = rule.Target.Error()
		}
		details, extra := errorDetails(err)
		response.ErrorWithFields(c, rule.Code, msg, details, extra)
		return
	}
	RespondErrorWithMsg(c, response.CodeInternal, internalErrorMessage, err)
}

// ConcatMappedErrors 合并多个规则表
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

func errorDetails(err error) ([]string, gin.H) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields, nil
	}
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		return nil, gin.H{"available_stock": stockErr.Available, "product_id": stockErr.ProductID}
	}
	var cartErr *service.CartValidationError
	if errors.As(err, &cartErr) {
		return nil, gin.H{"violations": cartErr.Violations}
	}
	if errors.Is(err, service.ErrARProcessingFailed) {
		return []string{err.Error()}, nil
	}
	return nil, nil
}

// CommonErrorRules 各接口共享的错误映射
var CommonErrorRules = []MappedError{
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest},
	{Target: service.ErrAddressInvalid, Code: response.CodeBadRequest, Message: "Validation failed"},
	{Target: service.ErrPrescriptionInvalid, Code: response.CodeBadRequest, Message: "Validation failed"},
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Message: "Validation failed"},
	{Target: service.ErrInvalidOrderStatus, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidPhone, Code: response.CodeBadRequest},
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest},
	{Target: service.ErrCartInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrInsufficientStock, Code: response.CodeBadRequest},
	{Target: service.ErrFileTypeInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrFileTooLarge, Code: response.CodeBadRequest},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound},
	{Target: service.ErrVariantNotFound, Code: response.CodeNotFound},
	{Target: service.ErrPrescriptionNotFound, Code: response.CodeNotFound},
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound},
	{Target: service.ErrAddressNotFound, Code: response.CodeNotFound},
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound},
	{Target: service.ErrEmailExists, Code: response.CodeConflict},
	{Target: service.ErrInvalidTransition, Code: response.CodeBadRequest},
	{Target: service.ErrOrderNotRefundable, Code: response.CodeBadRequest},
}
