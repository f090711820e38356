package public

import (
	"time"

	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	FirstName      string                              `json:"first_name"`
	LastName       string                              `json:"last_name"`
	Phone          string                              `json:"phone"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	RememberMe     bool                                `json:"remember_me"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AuthResponse 登录/注册响应
type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.UserAuthService.Register(service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Captcha:   req.CaptchaPayload.ToServicePayload(),
	})
	if err != nil {
		respondWithMappedError(c, err, authErrorRules)
		return
	}
	response.Created(c, "User registered successfully", AuthResponse{
		User:      result.User,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.UserAuthService.Login(service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		Captcha:    req.CaptchaPayload.ToServicePayload(),
	})
	if err != nil {
		respondWithMappedError(c, err, authErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Login successful", AuthResponse{
		User:      result.User,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// ChangePassword 修改密码，旧令牌随之失效
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.UserAuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		respondWithMappedError(c, err, authErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Password updated successfully", gin.H{"updated": true})
}
