package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/metrics"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/queue"
	"github.com/lumen-optics/internal/repository"
)

// 通知类型
const (
	notificationOrderConfirmation = "order_confirmation"
	notificationOrderShipped      = "order_shipped"
)

// NotificationService 订单通知服务（提交后投递）
type NotificationService struct {
	emailService *EmailService
	queueClient  *queue.Client
	orderRepo    repository.OrderRepository
	metrics      *metrics.CommerceMetrics
}

// NewNotificationService 创建通知服务
func NewNotificationService(emailService *EmailService, queueClient *queue.Client, orderRepo repository.OrderRepository, m *metrics.CommerceMetrics) *NotificationService {
	return &NotificationService{
		emailService: emailService,
		queueClient:  queueClient,
		orderRepo:    orderRepo,
		metrics:      m,
	}
}

// OrderConfirmed 订单确认通知；入队失败只记录日志
func (s *NotificationService) OrderConfirmed(order *models.Order) {
	s.dispatch(notificationOrderConfirmation, order)
}

// OrderShipped 订单发货通知；入队失败只记录日志
func (s *NotificationService) OrderShipped(order *models.Order) {
	s.dispatch(notificationOrderShipped, order)
}

func (s *NotificationService) dispatch(kind string, order *models.Order) {
	if s == nil || order == nil {
		return
	}
	payload := queue.OrderEmailPayload{OrderID: order.ID, OrderNumber: order.OrderNumber}

	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderEmail(orderEmailTaskType(kind), payload); err != nil {
			s.metrics.IncNotification(kind, err)
			logger.Warnw("order_email_enqueue_failed",
				"kind", kind,
				"order_id", order.ID,
				"order_number", order.OrderNumber,
				"error", err,
			)
		}
		return
	}

	if !s.emailService.Enabled() {
		logger.Debugw("order_email_skipped_service_disabled", "kind", kind, "order_id", order.ID)
		return
	}
	go func() {
		if err := s.DeliverOrderEmail(context.Background(), kind, order.ID); err != nil {
			logger.Warnw("order_email_inline_send_failed",
				"kind", kind,
				"order_id", order.ID,
				"order_number", order.OrderNumber,
				"error", err,
			)
		}
	}()
}

func orderEmailTaskType(kind string) string {
	if kind == notificationOrderShipped {
		return constants.TaskOrderShippedEmail
	}
	return constants.TaskOrderConfirmationEmail
}

// HandleOrderEmailTask 处理队列中的订单邮件任务
func (s *NotificationService) HandleOrderEmailTask(ctx context.Context, taskType string, payload queue.OrderEmailPayload) error {
	switch taskType {
	case constants.TaskOrderConfirmationEmail:
		return s.DeliverOrderEmail(ctx, notificationOrderConfirmation, payload.OrderID)
	case constants.TaskOrderShippedEmail:
		return s.DeliverOrderEmail(ctx, notificationOrderShipped, payload.OrderID)
	}
	return fmt.Errorf("unsupported order email task: %s", taskType)
}

// DeliverOrderEmail 加载订单与收件人后发送邮件
func (s *NotificationService) DeliverOrderEmail(ctx context.Context, kind string, orderID uint) (err error) {
	if s == nil {
		return nil
	}
	defer func() {
		s.metrics.IncNotification(kind, err)
	}()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	receiver, err := s.orderRepo.ResolveReceiver(order.ID)
	if err != nil {
		return err
	}
	if receiver == nil || receiver.Email == "" {
		return ErrUserNotFound
	}

	input := OrderEmailInput{
		OrderNumber:    order.OrderNumber,
		CustomerName:   receiver.FirstName,
		TotalAmount:    order.TotalAmount,
		Currency:       order.Currency,
		TrackingNumber: order.TrackingNumber,
		ShippingMethod: order.ShippingMethod,
	}
	switch kind {
	case notificationOrderShipped:
		err = s.emailService.SendOrderShipped(receiver.Email, input)
	default:
		err = s.emailService.SendOrderConfirmation(receiver.Email, input)
	}
	if errors.Is(err, ErrEmailServiceDisabled) {
		logger.Debugw("order_email_skipped_service_disabled", "kind", kind, "order_id", order.ID)
		return nil
	}
	return err
}
