package worker

import (
	"context"
	"errors"

	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/provider"
	"github.com/lumen-optics/internal/queue"
	"github.com/lumen-optics/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleOrderEmail)
	mux.HandleFunc(queue.TaskOrderShippedEmail, c.handleOrderEmail)
}

func (c *Consumer) handleOrderEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderEmailPayload(task)
	if err != nil {
		logger.Warnw("worker_order_email_unmarshal_failed", "task_type", task.Type(), "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_email_skip_invalid_payload", "task_type", task.Type())
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_order_email_skip_notification_service_nil", "order_id", payload.OrderID)
		return nil
	}

	err = c.NotificationService.HandleOrderEmailTask(ctx, task.Type(), payload)
	if err == nil {
		logger.Infow("worker_order_email_sent", "task_type", task.Type(), "order_id", payload.OrderID, "order_number", payload.OrderNumber)
		return nil
	}
	if !shouldRetryOrderEmail(err) {
		logger.Debugw("worker_order_email_skip",
			"task_type", task.Type(),
			"order_id", payload.OrderID,
			"reason", err.Error(),
		)
		return nil
	}
	logger.Warnw("worker_order_email_send_failed",
		"task_type", task.Type(),
		"order_id", payload.OrderID,
		"order_number", payload.OrderNumber,
		"error", err,
	)
	return err
}

// shouldRetryOrderEmail 缺失订单、缺失收件人或邮件未启用时不再重试
func shouldRetryOrderEmail(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrEmailServiceDisabled),
		errors.Is(err, service.ErrEmailServiceNotConfigured),
		errors.Is(err, service.ErrEmailRecipientRejected):
		return false
	default:
		return true
	}
}
