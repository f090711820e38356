package service

import (
	"fmt"
	"unicode"

	"github.com/lumen-optics/internal/config"
)

// bcrypt 只使用前 72 字节
const maxPasswordBytes = 72

// validatePassword 校验密码策略，返回全部未满足的规则
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	var upper, lower, digit bool
	for _, r := range password {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
		digit = digit || unicode.IsDigit(r)
	}

	var violations []string
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters", policy.MinLength))
	}
	if len(password) > maxPasswordBytes {
		violations = append(violations, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if policy.RequireUpper && !upper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if policy.RequireLower && !lower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if policy.RequireNumber && !digit {
		violations = append(violations, "password must contain a number")
	}
	if len(violations) > 0 {
		return newValidationError(ErrWeakPassword, violations...)
	}
	return nil
}
