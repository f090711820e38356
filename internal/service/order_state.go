package service

import (
	"fmt"

	"github.com/lumen-optics/internal/constants"
)

// orderState 订单组合状态（业务状态 + 支付状态）
type orderState struct {
	Status        string
	PaymentStatus string
}

func (s orderState) String() string {
	return s.Status + "/" + s.PaymentStatus
}

// 订单流转触发方式
const (
	triggerConfirm        = "confirm"
	triggerWebhookSuccess = "webhook_succeeded"
	triggerWebhookFailed  = "webhook_failed"
	triggerCancel         = "cancel"
	triggerRefundFull     = "refund_full"
	triggerShip           = "ship"
	triggerDeliver        = "deliver"
)

var (
	statePendingUnpaid     = orderState{constants.OrderStatusPending, constants.PaymentStatusPending}
	stateConfirmedPaid     = orderState{constants.OrderStatusConfirmed, constants.PaymentStatusCompleted}
	stateConfirmedUnpaid   = orderState{constants.OrderStatusConfirmed, constants.PaymentStatusPending}
	stateProcessingPaid    = orderState{constants.OrderStatusProcessing, constants.PaymentStatusCompleted}
	stateShippedPaid       = orderState{constants.OrderStatusShipped, constants.PaymentStatusCompleted}
	stateDeliveredPaid     = orderState{constants.OrderStatusDelivered, constants.PaymentStatusCompleted}
	stateCancelledFailed   = orderState{constants.OrderStatusCancelled, constants.PaymentStatusFailed}
	stateCancelledPending  = orderState{constants.OrderStatusCancelled, constants.PaymentStatusPending}
	stateCancelledRefunded = orderState{constants.OrderStatusCancelled, constants.PaymentStatusRefunded}
	stateReturnedRefunded  = orderState{constants.OrderStatusReturned, constants.PaymentStatusRefunded}
)

// orderTransitions 允许的状态流转：触发方式 -> 起始状态 -> 目标状态
// 已支付订单取消时同步全额退款，因此不存在 cancelled/completed 组合
var orderTransitions = map[string]map[orderState]orderState{
	triggerWebhookSuccess: {
		statePendingUnpaid:   stateConfirmedPaid,
		stateConfirmedUnpaid: stateConfirmedPaid,
	},
	triggerWebhookFailed: {
		statePendingUnpaid:   stateCancelledFailed,
		stateConfirmedUnpaid: stateCancelledFailed,
	},
	triggerCancel: {
		statePendingUnpaid:   stateCancelledPending,
		stateConfirmedUnpaid: stateCancelledPending,
		stateConfirmedPaid:   stateCancelledRefunded,
	},
	triggerRefundFull: {
		stateConfirmedPaid:  stateReturnedRefunded,
		stateProcessingPaid: stateReturnedRefunded,
		stateShippedPaid:    stateReturnedRefunded,
		stateDeliveredPaid:  stateReturnedRefunded,
	},
	triggerShip: {
		stateConfirmedPaid:  stateShippedPaid,
		stateProcessingPaid: stateShippedPaid,
	},
	triggerDeliver: {
		stateShippedPaid: stateDeliveredPaid,
	},
}

// nextOrderState 查表得到目标状态，不允许时返回 ErrInvalidTransition
func nextOrderState(trigger string, from orderState) (orderState, error) {
	targets, ok := orderTransitions[trigger]
	if !ok {
		return orderState{}, fmt.Errorf("%w: unknown trigger %s", ErrInvalidTransition, trigger)
	}
	to, ok := targets[from]
	if !ok {
		return orderState{}, fmt.Errorf("%w: %s cannot %s", ErrInvalidTransition, from, trigger)
	}
	return to, nil
}

// isValidOrderStatus 订单状态筛选值校验
func isValidOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
		constants.OrderStatusReturned:
		return true
	}
	return false
}
