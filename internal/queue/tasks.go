package queue

import (
	"encoding/json"
	"fmt"

	"github.com/lumen-optics/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmationEmail 订单确认邮件任务
	TaskOrderConfirmationEmail = constants.TaskOrderConfirmationEmail
	// TaskOrderShippedEmail 订单发货邮件任务
	TaskOrderShippedEmail = constants.TaskOrderShippedEmail
)

// OrderEmailPayload 订单邮件任务载荷
type OrderEmailPayload struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// NewOrderShippedEmailTask 创建订单发货邮件任务
func NewOrderShippedEmailTask(payload OrderEmailPayload) (*asynq.Task, error) {
	return NewOrderEmailTask(TaskOrderShippedEmail, payload)
}

// NewOrderEmailTask 按任务类型创建订单邮件任务
func NewOrderEmailTask(taskType string, payload OrderEmailPayload) (*asynq.Task, error) {
	if !IsOrderEmailTask(taskType) {
		return nil, fmt.Errorf("unsupported order email task: %s", taskType)
	}
	if payload.OrderID == 0 {
		return nil, fmt.Errorf("order email task requires order_id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// IsOrderEmailTask 判断是否为订单邮件任务
func IsOrderEmailTask(taskType string) bool {
	return taskType == TaskOrderConfirmationEmail || taskType == TaskOrderShippedEmail
}

// orderEmailTaskID 同一订单同类邮件只入队一次
func orderEmailTaskID(taskType string, orderID uint) string {
	return fmt.Sprintf("%s:%d", taskType, orderID)
}

// ParseOrderEmailPayload 解析订单邮件任务载荷
func ParseOrderEmailPayload(task *asynq.Task) (OrderEmailPayload, error) {
	var payload OrderEmailPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
