package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics 订单流程相关指标
type CommerceMetrics struct {
	orderTransitions *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	gatewayDuration  *prometheus.HistogramVec
	notifications    *prometheus.CounterVec
	httpRequests     *prometheus.HistogramVec
}

// NewCommerceMetrics 在给定注册器上注册指标，reg 为空时返回空实现
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order workflow transitions by trigger and resulting status.",
	}, []string{"trigger", "status"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_notifications_total",
		Help: "Order notification dispatch attempts by kind and outcome.",
	}, []string{"kind", "outcome"})
	httpRequests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(orderTransitions, webhookEvents, gatewayDuration, notifications, httpRequests)
	return &CommerceMetrics{
		orderTransitions: orderTransitions,
		webhookEvents:    webhookEvents,
		gatewayDuration:  gatewayDuration,
		notifications:    notifications,
		httpRequests:     httpRequests,
	}
}

// IncOrderTransition 记录订单状态流转
func (m *CommerceMetrics) IncOrderTransition(trigger, status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(trigger), normalizeLabel(status)).Inc()
}

// IncWebhookEvent 记录 webhook 事件处理结果
func (m *CommerceMetrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveGateway 记录网关调用耗时
func (m *CommerceMetrics) ObserveGateway(operation string, err error, duration time.Duration) {
	if m == nil || m.gatewayDuration == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(normalizeLabel(operation), outcomeOf(err)).Observe(duration.Seconds())
}

// IncNotification 记录通知投递
func (m *CommerceMetrics) IncNotification(kind string, err error) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind), outcomeOf(err)).Inc()
}

// ObserveHTTPRequest 记录接口耗时；route 为路由模板，未匹配时记为 unmatched
func (m *CommerceMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
