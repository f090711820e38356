package service

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/lumen-optics/internal/cache"
	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	captcha  *CaptchaService
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, captcha *CaptchaService) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
		captcha:  captcha,
	}
}

const (
	tokenIssuer = "lumen-optics"
	tokenLeeway = 30 * time.Second
)

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// AuthResult 登录/注册结果
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// tokenTTL 普通会话与“记住我”会话的有效期
func (s *UserAuthService) tokenTTL(rememberMe bool) time.Duration {
	hours := s.cfg.UserJWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	if rememberMe && s.cfg.UserJWT.RememberMeExpireHours > 0 {
		hours = s.cfg.UserJWT.RememberMeExpireHours
	}
	return time.Duration(hours) * time.Hour
}

// GenerateUserJWT 签发用户 JWT，ttl 为 0 时使用默认有效期
func (s *UserAuthService) GenerateUserJWT(user *models.User, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL(false)
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseUserJWT 解析并校验用户 JWT
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tokenLeeway),
	)
	claims := &UserJWTClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	}); err != nil || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate 校验 token 并返回当前用户鉴权状态（优先读缓存）
func (s *UserAuthService) Authenticate(ctx context.Context, tokenString string) (*cache.UserAuthState, error) {
	claims, err := s.ParseUserJWT(tokenString)
	if err != nil {
		return nil, err
	}
	state, err := s.loadAuthState(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !state.Accepts(claims.TokenVersion) {
		return nil, ErrInvalidToken
	}
	if !state.Active() {
		return nil, ErrUserDisabled
	}
	return state, nil
}

// loadAuthState 缓存未命中或读取失败时回源数据库并回填
func (s *UserAuthService) loadAuthState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, hit, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.Warnw("user_auth_state_cache_read_failed", "user_id", userID, "error", err)
	}
	if err == nil && hit && state != nil {
		return state, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	state = cache.BuildUserAuthState(user)
	s.storeAuthState(ctx, user)
	return state, nil
}

func (s *UserAuthService) storeAuthState(ctx context.Context, user *models.User) {
	if err := cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user)); err != nil {
		logger.Warnw("user_auth_state_cache_write_failed", "user_id", user.ID, "error", err)
	}
}

// issueSession 签发令牌并刷新鉴权缓存
func (s *UserAuthService) issueSession(user *models.User, rememberMe bool) (*AuthResult, error) {
	token, expiresAt, err := s.GenerateUserJWT(user, s.tokenTTL(rememberMe))
	if err != nil {
		return nil, err
	}
	s.storeAuthState(context.Background(), user)
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Captcha   CaptchaVerifyPayload
}

// Register 用户注册
func (s *UserAuthService) Register(input RegisterInput) (*AuthResult, error) {
	if err := s.captcha.Verify(constants.CaptchaSceneRegister, input.Captcha); err != nil {
		return nil, err
	}
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	firstName := sanitizePlainText(input.FirstName)
	lastName := sanitizePlainText(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, newValidationError(ErrInvalidInput, "first_name is required", "last_name is required")
	}
	if !isValidPhone(input.Phone) {
		return nil, ErrInvalidPhone
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, err
	}

	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Infow("user_registered", "user_id", user.ID)
	return s.issueSession(user, false)
}

// LoginInput 登录输入
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	Captcha    CaptchaVerifyPayload
}

// Login 用户登录
func (s *UserAuthService) Login(input LoginInput) (*AuthResult, error) {
	if err := s.captcha.Verify(constants.CaptchaSceneLogin, input.Captcha); err != nil {
		return nil, err
	}
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !cache.BuildUserAuthState(user).Active() {
		return nil, ErrUserDisabled
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return s.issueSession(user, input.RememberMe)
}

// ChangePassword 修改密码并使旧 token 失效
func (s *UserAuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.RotatePassword(user.ID, string(hashedPassword)); err != nil {
		return err
	}
	user.TokenVersion++
	s.storeAuthState(context.Background(), user)
	logger.Infow("user_password_changed", "user_id", user.ID)
	return nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	if !isValidEmail(normalized) {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
