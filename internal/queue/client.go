package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// NotificationQueue 通知队列名称
	NotificationQueue = constants.QueueNotifications

	defaultMaxRetry    = 5
	defaultConcurrency = 10
	emailTaskTimeout   = 2 * time.Minute
	// 去重窗口覆盖 webhook 重放与人工重复发货
	emailDedupRetention = 24 * time.Hour
)

// Client 通知队列客户端
type Client struct {
	client   *asynq.Client
	maxRetry int
}

// NewClient 创建队列客户端；关闭队列时返回不可用的空客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{maxRetry: defaultMaxRetry}, nil
	}
	maxRetry := cfg.MaxRetry
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg)), maxRetry: maxRetry}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderEmail 推送订单邮件任务，重复入队视为成功
func (c *Client) EnqueueOrderEmail(taskType string, payload OrderEmailPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderEmailTask(taskType, payload)
	if err != nil {
		return err
	}
	options := append(c.orderEmailOptions(taskType, payload.OrderID), opts...)
	if _, err := c.client.Enqueue(task, options...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}
	return nil
}

func (c *Client) orderEmailOptions(taskType string, orderID uint) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(NotificationQueue),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(emailTaskTimeout),
		asynq.TaskID(orderEmailTaskID(taskType, orderID)),
		asynq.Retention(emailDedupRetention),
	}
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{NotificationQueue: 6, DefaultQueue: 3},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
