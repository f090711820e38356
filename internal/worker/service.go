package worker

import (
	"context"
	"errors"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/queue"

	"github.com/hibiken/asynq"
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Service 通知任务消费服务
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 按队列配置创建消费服务，并挂载任务日志中间件
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = logger.S().Named("asynq")
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(reportTaskFailure)

	mux := asynq.NewServeMux()
	mux.Use(taskLogging)
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 阻塞运行直到 Stop
func (s *Service) Start(_ context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 等待进行中的任务结束
func (s *Service) Stop(_ context.Context) error {
	if s != nil && s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func taskLogging(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		started := time.Now()
		err := next.ProcessTask(ctx, task)
		logger.Debugw("worker_task_processed",
			"task_type", task.Type(),
			"duration_ms", time.Since(started).Milliseconds(),
			"failed", err != nil,
		)
		return err
	})
}

// reportTaskFailure 仅在重试耗尽时记为错误
func reportTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		logger.Errorw("worker_task_exhausted", "task_type", task.Type(), "retried", retried, "error", err)
		return
	}
	logger.Warnw("worker_task_retry_scheduled", "task_type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
}
