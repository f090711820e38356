package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lumen-optics/internal/config"
	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const maxKeyBodyBytes = 16 * 1024

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

// RuleFromConfig 由配置生成限流规则
func RuleFromConfig(prefix string, cfg config.RateLimitConfig) RateLimitRule {
	return RateLimitRule{Prefix: prefix, WindowSeconds: cfg.WindowSeconds, MaxRequests: cfg.MaxAttempts}
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

// 计数并在首个请求时设置窗口过期，返回 {count, ttl}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

func hitWindow(ctx context.Context, client *redis.Client, key string, window int) (int64, time.Duration, error) {
	values, err := fixedWindowScript.Run(ctx, client, []string{key}, window).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", values)
	}
	return values[0], time.Duration(values[1]) * time.Second, nil
}

// RateLimitMiddleware Redis 固定窗口限流；Redis 不可用时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.active() {
			c.Next()
			return
		}

		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}
		key := rule.key(raw)

		count, ttl, err := hitWindow(c.Request.Context(), client, key, rule.WindowSeconds)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		remaining := int64(rule.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := retryAfterSeconds(ttl, rule.WindowSeconds)
		logger.Infow("rate_limit_exceeded", "key", key, "count", count, "path", c.FullPath())
		c.Header("Retry-After", strconv.Itoa(wait))
		response.Error(c, response.CodeTooManyRequests, fmt.Sprintf("Too many requests, please retry in %d seconds", wait))
	}
}

func retryAfterSeconds(ttl time.Duration, window int) int {
	wait := int(ttl / time.Second)
	if wait < 1 {
		wait = window
	}
	if wait < 1 {
		wait = 1
	}
	return wait
}

// KeyByIP 按客户端 IP
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 已登录用户按用户 ID 限流，否则退回 IP
func KeyByUserID(c *gin.Context) string {
	if userID := c.GetUint(handlershared.ContextUserIDKey); userID > 0 {
		return "user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 按 JSON 字段值 + IP 限流，读取后恢复请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONString(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func peekJSONString(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyBodyBytes))
	rest := c.Request.Body
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), rest))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
