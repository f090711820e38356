package service

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	postalCodePattern = regexp.MustCompile(`^[A-Za-z0-9\s\-]{3,10}$`)
	nonDigitPattern   = regexp.MustCompile(`\D`)

	validateOnce sync.Once
	validate     *validator.Validate

	plainTextPolicy = bluemonday.StrictPolicy()
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if tag == "" || tag == "-" {
				return f.Name
			}
			return tag
		})
		_ = v.RegisterValidation("postal_code", func(fl validator.FieldLevel) bool {
			return postalCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		_ = v.RegisterValidation("phone_digits", func(fl validator.FieldLevel) bool {
			return isValidPhone(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// validateStruct 校验结构体，失败时返回带字段说明的分类错误
func validateStruct(base error, input interface{}) error {
	err := structValidator().Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newValidationError(base, err.Error())
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, validationMessage(fe))
	}
	return newValidationError(base, messages...)
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "postal_code":
		return "Invalid postal code format"
	case "phone_digits":
		return "Invalid phone number format"
	case "datetime":
		return fmt.Sprintf("%s must use format %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// isValidEmail 邮箱格式校验
func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	return structValidator().Var(email, "email") == nil
}

// isValidPhone 电话为空视为有效，否则需 10-15 位数字
func isValidPhone(phone string) bool {
	if strings.TrimSpace(phone) == "" {
		return true
	}
	digits := nonDigitPattern.ReplaceAllString(phone, "")
	return len(digits) >= 10 && len(digits) <= 15
}

// sanitizePlainText 去除用户输入中的 HTML
func sanitizePlainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(trimmed)))
}

// normalizePage 规范化分页参数
func normalizePage(page, pageSize, defaultSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}
