package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumen-optics/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "lumen"
	dialTimeout   = 3 * time.Second
	ioTimeout     = 2 * time.Second
)

var (
	redisClient *redis.Client
	redisPrefix = defaultPrefix
)

// InitRedis 初始化 Redis 客户端，未启用时所有读写退化为空操作
func InitRedis(cfg *config.RedisConfig) error {
	redisClient = nil
	redisPrefix = defaultPrefix
	if cfg == nil {
		return nil
	}
	if prefix := strings.TrimSpace(cfg.Prefix); prefix != "" {
		redisPrefix = prefix
	}
	if !cfg.Enabled {
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})
	return nil
}

// Enabled 是否配置了 Redis
func Enabled() bool {
	return redisClient != nil
}

// Client 原始客户端，未启用时为 nil
func Client() *redis.Client {
	return redisClient
}

// Prefix 键前缀
func Prefix() string {
	return redisPrefix
}

// Ping 检查连通性
func Ping(ctx context.Context) error {
	if redisClient == nil {
		return errors.New("redis disabled")
	}
	return redisClient.Ping(ctx).Err()
}

// Close 关闭连接
func Close() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}

// GetJSON 读取并反序列化，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if redisClient == nil {
		return false, nil
	}
	raw, err := redisClient.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 序列化写入
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if redisClient == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除一个或多个键
func Del(ctx context.Context, keys ...string) error {
	if redisClient == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, buildKey(key))
	}
	return redisClient.Del(ctx, full...).Err()
}

func buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return redisPrefix
	}
	return redisPrefix + ":" + trimmed
}
