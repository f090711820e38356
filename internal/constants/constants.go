package constants

// 订单业务状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// 订单支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// 支付方式常量
const (
	PaymentMethodStripe = "stripe"
)

// Stripe webhook 事件类型
const (
	StripeEventPaymentSucceeded = "payment_intent.succeeded"
	StripeEventPaymentFailed    = "payment_intent.payment_failed"
	StripeEventDisputeCreated   = "charge.dispute.created"
)

// 购物车校验违规原因
const (
	CartViolationInactiveProduct   = "inactive_product"
	CartViolationInsufficientStock = "insufficient_stock"
)

// 地址类型
const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
)

// 镜框类型
const (
	FrameTypeEyeglasses = "eyeglasses"
	FrameTypeSunglasses = "sunglasses"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

// 商品排序字段
const (
	ProductSortName       = "name"
	ProductSortPrice      = "price"
	ProductSortCreatedAt  = "created_at"
	ProductSortUpdatedAt  = "updated_at"
	ProductSortPopularity = "popularity"
)

// 队列名称
const (
	QueueDefault       = "default"
	QueueNotifications = "notifications"
)

// 异步任务类型
const (
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskOrderShippedEmail      = "order:shipped_email"
)

// 验证码场景
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)
