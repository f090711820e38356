package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumen-optics/internal/authz"
	"github.com/lumen-optics/internal/cache"
	"github.com/lumen-optics/internal/config"
	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/metrics"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey       = "request_id"
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 64
)

var defaultCORSHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Accept-Encoding",
	"Authorization",
	"Cache-Control",
	"X-Requested-With",
	requestIDHeader,
}

// corsPolicy 预先计算好的跨域策略
type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		methods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		headers:     strings.Join(defaultCORSHeaders, ", "),
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if origin == "*" {
			policy.anyOrigin = true
			continue
		}
		if origin != "" {
			policy.origins[origin] = struct{}{}
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		policy.anyOrigin = true
	}
	if len(cfg.AllowedMethods) > 0 {
		policy.methods = strings.Join(cfg.AllowedMethods, ", ")
	}
	if len(cfg.AllowedHeaders) > 0 {
		policy.headers = strings.Join(cfg.AllowedHeaders, ", ")
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

// allowOrigin 返回应写入 Access-Control-Allow-Origin 的值，空串表示不放行
func (p corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin {
		// 携带凭证时浏览器不接受通配符
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok && origin != "" {
		return origin
	}
	return ""
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", policy.headers)
		header.Set("Access-Control-Allow-Methods", policy.methods)
		header.Set("Access-Control-Expose-Headers", requestIDHeader+", X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After")
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 请求 ID 中间件，外部传入的 ID 不合法时重新生成
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// AccessLogMiddleware 访问日志与接口耗时指标
func AccessLogMiddleware(base *zap.Logger, m *metrics.CommerceMetrics) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, latency)

		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID := c.GetUint(handlershared.ContextUserIDKey); userID > 0 {
			fields = append(fields, "user_id", userID)
		}
		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("http_request", append(fields, "errors", c.Errors.String())...)
		case status >= http.StatusInternalServerError:
			sugar.Errorw("http_request", fields...)
		case status >= http.StatusBadRequest:
			sugar.Warnw("http_request", fields...)
		default:
			sugar.Infow("http_request", fields...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// UserAuthenticator 校验用户令牌
type UserAuthenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*cache.UserAuthState, error)
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件，写入 user_id 与 user_role
func UserJWTAuthMiddleware(auth UserAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			response.Unauthorized(c, "Authentication unavailable")
			return
		}
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "Access token required")
			return
		}

		state, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserDisabled):
				response.Unauthorized(c, "Account is disabled")
			case errors.Is(err, service.ErrInvalidToken):
				response.Unauthorized(c, "Invalid or expired token")
			default:
				logger.Errorw("user_auth_failed", "path", c.Request.URL.Path, "error", err)
				response.Unauthorized(c, "Invalid or expired token")
			}
			return
		}

		c.Set(handlershared.ContextUserIDKey, state.UserID)
		c.Set(handlershared.ContextUserRoleKey, state.Role)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AdminAuthzMiddleware 管理端 casbin 鉴权中间件，需在 UserJWTAuthMiddleware 之后使用
func AdminAuthzMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_authz_service_unavailable")
			response.Forbidden(c, "Access denied")
			return
		}

		userID := c.GetUint(handlershared.ContextUserIDKey)
		if userID == 0 {
			response.Unauthorized(c, "Authentication required")
			return
		}
		role := c.GetString(handlershared.ContextUserRoleKey)

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceUser(userID, role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_authz_enforce_failed",
				"user_id", userID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Forbidden(c, "Access denied")
			return
		}
		if !allowed {
			logger.Warnw("admin_authz_permission_denied",
				"user_id", userID,
				"role", role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "Admin privileges required")
			return
		}

		c.Next()
	}
}
