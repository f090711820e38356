package service

import (
	"errors"
	"fmt"
)

// 校验类错误
var (
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidAmount       = errors.New("payment amount must be greater than zero")
	ErrAddressInvalid      = errors.New("address is invalid")
	ErrPrescriptionInvalid = errors.New("prescription is invalid")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrCartEmpty           = errors.New("cart is empty")
	ErrCartInvalid         = errors.New("cart validation failed")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrFileTypeInvalid     = errors.New("invalid file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameInvalid     = errors.New("invalid filename")
	ErrWeakPassword        = errors.New("password does not meet policy")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotEyewear          = errors.New("virtual try-on is only available for eyewear")
	ErrProductImageMissing = errors.New("product image not available")
	ErrCaptchaRequired     = errors.New("captcha is required")
	ErrCaptchaInvalid      = errors.New("captcha is invalid")
	ErrARProcessingFailed  = errors.New("ar processing failed")
)

// 资源不存在
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrAddressNotFound      = errors.New("address not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrFileNotFound         = errors.New("file not found")
)

// 冲突
var (
	ErrEmailExists           = errors.New("email already in use")
	ErrSlugExists            = errors.New("slug already exists")
	ErrSKUExists             = errors.New("sku already exists")
	ErrPaymentUserMismatch   = errors.New("payment does not belong to current user")
	ErrPaymentAmountMismatch = errors.New("payment amount does not match order total")
)

// 外部依赖
var (
	ErrPaymentGateway       = errors.New("payment processing error")
	ErrPaymentNotSucceeded  = errors.New("payment not completed")
	ErrARServiceUnavailable = errors.New("ar service unavailable")
)

// 状态流转
var (
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderNotRefundable = errors.New("order cannot be refunded")
)

// 认证
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

// 邮件
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// InsufficientStockError 库存不足（附带可用库存）
type InsufficientStockError struct {
	ProductID uint
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// Unwrap 匹配 ErrInsufficientStock
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError 字段级校验错误
type ValidationError struct {
	base   error
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.base.Error()
	}
	return fmt.Sprintf("%s: %v", e.base.Error(), e.Fields)
}

// Unwrap 返回分类错误
func (e *ValidationError) Unwrap() error {
	return e.base
}

func newValidationError(base error, fields ...string) error {
	return &ValidationError{base: base, Fields: fields}
}
