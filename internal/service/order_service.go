package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/metrics"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/payment/stripe"
	"github.com/lumen-optics/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultOrderPageSize = 10
	defaultMaxPageSize   = 50
)

// OrderService 订单流程服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	gateway     stripe.Gateway
	notifier    *NotificationService
	metrics     *metrics.CommerceMetrics
	cfg         config.OrderConfig
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, gateway stripe.Gateway, notifier *NotificationService, m *metrics.CommerceMetrics, cfg config.OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		gateway:     gateway,
		notifier:    notifier,
		metrics:     m,
		cfg:         cfg,
	}
}

// AddressSnapshot 下单地址快照
type AddressSnapshot struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Company      string `json:"company,omitempty" validate:"max=200"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line_2,omitempty" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postal_code" validate:"required,postal_code"`
	Country      string `json:"country" validate:"required,max=100"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,phone_digits"`
}

func (a AddressSnapshot) toJSON() models.JSON {
	result := models.JSON{
		"first_name":     strings.TrimSpace(a.FirstName),
		"last_name":      strings.TrimSpace(a.LastName),
		"address_line_1": strings.TrimSpace(a.AddressLine1),
		"city":           strings.TrimSpace(a.City),
		"state":          strings.TrimSpace(a.State),
		"postal_code":    strings.TrimSpace(a.PostalCode),
		"country":        strings.TrimSpace(a.Country),
	}
	if v := strings.TrimSpace(a.Company); v != "" {
		result["company"] = v
	}
	if v := strings.TrimSpace(a.AddressLine2); v != "" {
		result["address_line_2"] = v
	}
	if v := strings.TrimSpace(a.Phone); v != "" {
		result["phone"] = v
	}
	return result
}

// CreateOrderFromPaymentInput 由已支付意图生成订单的输入
type CreateOrderFromPaymentInput struct {
	UserID          uint
	Intent          *stripe.Intent
	BillingAddress  AddressSnapshot
	ShippingAddress AddressSnapshot
	ShippingMethod  string
	Notes           string
	ShippingAmount  models.Money
	TaxAmount       models.Money
}

// CartValidationError 结算时购物车校验失败
type CartValidationError struct {
	Violations []CartViolation
}

func (e *CartValidationError) Error() string {
	return fmt.Sprintf("cart validation failed: %d item(s)", len(e.Violations))
}

// Unwrap 匹配 ErrCartInvalid
func (e *CartValidationError) Unwrap() error {
	return ErrCartInvalid
}

// CreateFromPayment 将购物车快照与已成功的支付意图落为订单（单事务）
// 同一支付意图重复确认时返回已存在的订单
func (s *OrderService) CreateFromPayment(input CreateOrderFromPaymentInput) (*models.Order, bool, error) {
	intent := input.Intent
	if intent == nil || strings.TrimSpace(intent.ID) == "" {
		return nil, false, ErrPaymentNotSucceeded
	}
	if existing, err := s.existingOrderForIntent(intent.ID, input.UserID); existing != nil || err != nil {
		return existing, false, err
	}
	if err := validateStruct(ErrAddressInvalid, input.BillingAddress); err != nil {
		return nil, false, err
	}
	if err := validateStruct(ErrAddressInvalid, input.ShippingAddress); err != nil {
		return nil, false, err
	}

	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		cartItems, err := cartRepo.ListByUser(input.UserID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrCartEmpty
		}
		if violations := collectCartViolations(cartItems); len(violations) > 0 {
			return &CartValidationError{Violations: violations}
		}

		built, err := s.buildOrder(input, cartItems)
		if err != nil {
			return err
		}
		if err := orderRepo.Create(built.order, built.items); err != nil {
			return err
		}
		for _, item := range cartItems {
			if err := decrementLineStock(productRepo, item); err != nil {
				return err
			}
			if err := productRepo.AdjustSalesCount(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := cartRepo.ClearByUser(input.UserID); err != nil {
			return err
		}
		order = built.order
		return nil
	})
	if err != nil {
		// 并发确认同一意图时唯一索引冲突，返回先落库的订单
		if existing, lookupErr := s.existingOrderForIntent(intent.ID, input.UserID); existing != nil && lookupErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	s.metrics.IncOrderTransition(triggerConfirm, order.Status)
	logger.Infow("order_confirmed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", order.UserID,
		"payment_intent_id", order.PaymentIntentID,
		"total_amount", order.TotalAmount.String(),
	)
	s.notifier.OrderConfirmed(order)
	return order, true, nil
}

func (s *OrderService) existingOrderForIntent(intentID string, userID uint) (*models.Order, error) {
	existing, err := s.orderRepo.GetByPaymentIntent(intentID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.UserID != userID {
		return nil, ErrPaymentUserMismatch
	}
	return existing, nil
}

type builtOrder struct {
	order *models.Order
	items []models.OrderItem
}

func (s *OrderService) buildOrder(input CreateOrderFromPaymentInput, cartItems []models.CartItem) (*builtOrder, error) {
	now := time.Now()
	items := make([]models.OrderItem, 0, len(cartItems))
	lineTotals := make([]models.Money, 0, len(cartItems))
	for _, line := range cartItems {
		unit := line.UnitPrice()
		total := line.LineTotal()
		item := models.OrderItem{
			ProductID:           line.ProductID,
			VariantID:           line.VariantID,
			PrescriptionID:      line.PrescriptionID,
			ProductName:         line.Product.Name,
			ProductSKU:          line.Product.SKU,
			ProductImage:        line.Product.PrimaryImageURL(),
			UnitPrice:           unit,
			Quantity:            line.Quantity,
			TotalPrice:          total,
			LensOptions:         line.LensOptions,
			FrameAdjustments:    line.FrameAdjustments,
			SpecialInstructions: line.SpecialInstructions,
			CreatedAt:           now,
		}
		if line.Variant != nil && line.Variant.SKU != "" {
			item.ProductSKU = line.Variant.SKU
		}
		items = append(items, item)
		lineTotals = append(lineTotals, total)
	}

	subtotal := models.SumMoney(lineTotals...)
	discount := models.Money{}
	totalAmount := models.NewMoneyFromDecimal(
		subtotal.Decimal.Add(input.ShippingAmount.Decimal).Add(input.TaxAmount.Decimal).Sub(discount.Decimal),
	)
	if !totalAmount.Decimal.Equal(input.Intent.Amount.Round(2)) {
		logger.Warnw("order_confirm_amount_mismatch",
			"user_id", input.UserID,
			"payment_intent_id", input.Intent.ID,
			"order_total", totalAmount.String(),
			"intent_amount", input.Intent.Amount.StringFixed(2),
		)
		return nil, ErrPaymentAmountMismatch
	}

	currency := strings.ToLower(strings.TrimSpace(input.Intent.Currency))
	if currency == "" {
		currency = "usd"
	}
	order := &models.Order{
		OrderNumber:     generateOrderNumber(s.cfg.NumberPrefix, now),
		UserID:          input.UserID,
		Status:          stateConfirmedPaid.Status,
		PaymentStatus:   stateConfirmedPaid.PaymentStatus,
		PaymentMethod:   constants.PaymentMethodStripe,
		PaymentIntentID: input.Intent.ID,
		Currency:        currency,
		Subtotal:        subtotal,
		TaxAmount:       input.TaxAmount,
		ShippingAmount:  input.ShippingAmount,
		DiscountAmount:  discount,
		TotalAmount:     totalAmount,
		BillingAddress:  input.BillingAddress.toJSON(),
		ShippingAddress: input.ShippingAddress.toJSON(),
		ShippingMethod:  strings.TrimSpace(input.ShippingMethod),
		Notes:           sanitizePlainText(input.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return &builtOrder{order: order, items: items}, nil
}

// decrementLineStock 条件扣减库存，未跟踪库存的商品跳过
func decrementLineStock(productRepo repository.ProductRepository, line models.CartItem) error {
	if line.Product == nil || !line.Product.TrackInventory {
		return nil
	}
	affected, err := productRepo.DecrementStock(line.ProductID, line.Quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &InsufficientStockError{ProductID: line.ProductID, Available: line.Product.StockQuantity}
	}
	if line.VariantID == 0 {
		return nil
	}
	affected, err = productRepo.DecrementVariantStock(line.VariantID, line.Quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		available := 0
		if line.Variant != nil {
			available = line.Variant.StockQuantity
		}
		return &InsufficientStockError{ProductID: line.ProductID, Available: available}
	}
	return nil
}

// restoreOrderStock 回补订单占用的库存
func restoreOrderStock(productRepo repository.ProductRepository, items []models.OrderItem) error {
	for _, item := range items {
		product, err := productRepo.GetByID(item.ProductID, false)
		if err != nil {
			return err
		}
		if product == nil || !product.TrackInventory {
			continue
		}
		if err := productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := productRepo.IncrementVariantStock(item.VariantID, item.Quantity); err != nil {
			return err
		}
		if err := productRepo.AdjustSalesCount(item.ProductID, -item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Cancel 用户取消订单，回补库存；已支付订单同时全额退款
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	from := orderState{order.Status, order.PaymentStatus}
	to, err := nextOrderState(triggerCancel, from)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         to.Status,
			"payment_status": to.PaymentStatus,
			"cancelled_at":   now,
			"admin_notes":    appendAdminNote(order.AdminNotes, fmt.Sprintf("Cancelled by customer on %s", now.UTC().Format(time.RFC3339))),
			"updated_at":     now,
		}
		affected, err := s.orderRepo.WithTx(tx).UpdateState(order.ID, from.Status, from.PaymentStatus, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		if err := restoreOrderStock(s.productRepo.WithTx(tx), order.Items); err != nil {
			return err
		}
		if from.PaymentStatus == constants.PaymentStatusCompleted {
			if _, err := s.refundAtGateway(ctx, order, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(triggerCancel, to.Status)
	logger.Infow("order_cancelled", "order_id", order.ID, "order_number", order.OrderNumber, "user_id", userID, "payment_status", to.PaymentStatus)
	return s.orderRepo.GetByID(order.ID)
}

// RefundResult 退款结果
type RefundResult struct {
	Order    *models.Order `json:"order"`
	RefundID string        `json:"refund_id"`
	Amount   models.Money  `json:"amount"`
	Full     bool          `json:"full_refund"`
}

// Refund 管理员退款；金额为空或不小于订单总额时为全额退款
func (s *OrderService) Refund(ctx context.Context, orderID uint, amount *decimal.Decimal) (*RefundResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.PaymentStatus != constants.PaymentStatusCompleted || strings.TrimSpace(order.PaymentIntentID) == "" {
		return nil, ErrOrderNotRefundable
	}
	if amount != nil && !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	full := amount == nil || amount.GreaterThanOrEqual(order.TotalAmount.Decimal)
	from := orderState{order.Status, order.PaymentStatus}
	to := from
	if full {
		to, err = nextOrderState(triggerRefundFull, from)
		if err != nil {
			return nil, ErrOrderNotRefundable
		}
		amount = nil
	}

	now := time.Now()
	var refund *stripe.Refund
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		affected, err := orderRepo.UpdateState(order.ID, from.Status, from.PaymentStatus, map[string]interface{}{
			"status":         to.Status,
			"payment_status": to.PaymentStatus,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		refund, err = s.refundAtGateway(ctx, order, amount)
		if err != nil {
			return err
		}
		note := fmt.Sprintf("Full refund %s processed on %s", refund.ID, now.UTC().Format(time.RFC3339))
		if !full {
			note = fmt.Sprintf("Partial refund of %s (%s) processed on %s", refund.Amount.StringFixed(2), refund.ID, now.UTC().Format(time.RFC3339))
		}
		_, err = orderRepo.UpdateState(order.ID, to.Status, to.PaymentStatus, map[string]interface{}{
			"admin_notes": appendAdminNote(order.AdminNotes, note),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if full {
		s.metrics.IncOrderTransition(triggerRefundFull, to.Status)
	}
	logger.Infow("order_refunded", "order_id", order.ID, "refund_id", refund.ID, "full", full, "amount", refund.Amount.StringFixed(2))
	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	return &RefundResult{
		Order:    updated,
		RefundID: refund.ID,
		Amount:   models.NewMoneyFromDecimal(refund.Amount),
		Full:     full,
	}, nil
}

func (s *OrderService) refundAtGateway(ctx context.Context, order *models.Order, amount *decimal.Decimal) (*stripe.Refund, error) {
	if s.gateway == nil {
		return nil, ErrPaymentGateway
	}
	started := time.Now()
	refund, err := s.gateway.Refund(ctx, order.PaymentIntentID, amount)
	s.metrics.ObserveGateway("refund", err, time.Since(started))
	if err != nil {
		logger.Errorw("order_refund_gateway_failed", "order_id", order.ID, "payment_intent_id", order.PaymentIntentID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return refund, nil
}

// Ship 管理员发货
func (s *OrderService) Ship(orderID uint, trackingNumber, shippingMethod string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	from := orderState{order.Status, order.PaymentStatus}
	to, err := nextOrderState(triggerShip, from)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":          to.Status,
		"tracking_number": strings.TrimSpace(trackingNumber),
		"shipped_at":      now,
		"updated_at":      now,
	}
	if method := strings.TrimSpace(shippingMethod); method != "" {
		updates["shipping_method"] = method
	}
	affected, err := s.orderRepo.UpdateState(order.ID, from.Status, from.PaymentStatus, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}
	s.metrics.IncOrderTransition(triggerShip, to.Status)

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.OrderShipped(updated)
	return updated, nil
}

// Deliver 管理员确认签收
func (s *OrderService) Deliver(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	from := orderState{order.Status, order.PaymentStatus}
	to, err := nextOrderState(triggerDeliver, from)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	affected, err := s.orderRepo.UpdateState(order.ID, from.Status, from.PaymentStatus, map[string]interface{}{
		"status":       to.Status,
		"delivered_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}
	s.metrics.IncOrderTransition(triggerDeliver, to.Status)
	return s.orderRepo.GetByID(order.ID)
}

// webhook 处理结果
const (
	webhookOutcomeApplied  = "applied"
	webhookOutcomeNoop     = "noop"
	webhookOutcomeNoOrder  = "no_order"
	webhookOutcomeRejected = "rejected"
)

// ApplyPaymentSucceeded 支付成功回调：仅更新已存在的订单
func (s *OrderService) ApplyPaymentSucceeded(intentID string) (string, error) {
	order, err := s.orderRepo.GetByPaymentIntent(intentID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return webhookOutcomeNoOrder, nil
	}
	if order.PaymentStatus == constants.PaymentStatusCompleted {
		return webhookOutcomeNoop, nil
	}
	from := orderState{order.Status, order.PaymentStatus}
	to, err := nextOrderState(triggerWebhookSuccess, from)
	if err != nil {
		logger.Warnw("webhook_payment_succeeded_transition_rejected", "order_id", order.ID, "state", from.String())
		return webhookOutcomeRejected, nil
	}
	affected, err := s.orderRepo.UpdateState(order.ID, from.Status, from.PaymentStatus, map[string]interface{}{
		"status":         to.Status,
		"payment_status": to.PaymentStatus,
		"updated_at":     time.Now(),
	})
	if err != nil {
		return "", err
	}
	if affected == 0 {
		return webhookOutcomeNoop, nil
	}
	s.metrics.IncOrderTransition(triggerWebhookSuccess, to.Status)
	return webhookOutcomeApplied, nil
}

// ApplyPaymentFailed 支付失败回调：取消订单并回补库存，已完成或已失败的订单不处理
func (s *OrderService) ApplyPaymentFailed(intentID string) (string, error) {
	order, err := s.orderRepo.GetByPaymentIntent(intentID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return webhookOutcomeNoOrder, nil
	}
	if order.PaymentStatus == constants.PaymentStatusCompleted || order.PaymentStatus == constants.PaymentStatusFailed {
		return webhookOutcomeNoop, nil
	}
	from := orderState{order.Status, order.PaymentStatus}
	to, err := nextOrderState(triggerWebhookFailed, from)
	if err != nil {
		logger.Warnw("webhook_payment_failed_transition_rejected", "order_id", order.ID, "state", from.String())
		return webhookOutcomeRejected, nil
	}

	applied := false
	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).UpdateState(order.ID, from.Status, from.PaymentStatus, map[string]interface{}{
			"status":         to.Status,
			"payment_status": to.PaymentStatus,
			"cancelled_at":   now,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		applied = true
		return restoreOrderStock(s.productRepo.WithTx(tx), order.Items)
	})
	if err != nil {
		return "", err
	}
	if !applied {
		return webhookOutcomeNoop, nil
	}
	s.metrics.IncOrderTransition(triggerWebhookFailed, to.Status)
	return webhookOutcomeApplied, nil
}

// ListOrdersInput 订单列表查询
type ListOrdersInput struct {
	UserID   uint
	Status   string
	Page     int
	PageSize int
}

// List 用户订单列表
func (s *OrderService) List(input ListOrdersInput) ([]models.Order, int64, int, int, error) {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != "" && !isValidOrderStatus(status) {
		return nil, 0, 0, 0, ErrInvalidOrderStatus
	}
	maxSize := s.cfg.MaxPageSize
	if maxSize <= 0 {
		maxSize = defaultMaxPageSize
	}
	page, pageSize := normalizePage(input.Page, input.PageSize, defaultOrderPageSize, maxSize)
	orders, total, err := s.orderRepo.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   input.UserID,
		Status:   status,
	})
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return orders, total, page, pageSize, nil
}

// Get 用户订单详情
func (s *OrderService) Get(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByNumber 按订单号查询
func (s *OrderService) GetByNumber(userID uint, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumberAndUser(strings.TrimSpace(orderNumber), userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// TrackingEvent 物流时间线节点
type TrackingEvent struct {
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// TrackingInfo 订单追踪信息
type TrackingInfo struct {
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	TrackingNumber string          `json:"tracking_number"`
	ShippingMethod string          `json:"shipping_method"`
	ShippedAt      *time.Time      `json:"shipped_at"`
	DeliveredAt    *time.Time      `json:"delivered_at"`
	Timeline       []TrackingEvent `json:"timeline"`
}

// Track 根据订单时间字段推导追踪时间线
func (s *OrderService) Track(userID, orderID uint) (*TrackingInfo, error) {
	order, err := s.Get(userID, orderID)
	if err != nil {
		return nil, err
	}
	return buildTrackingInfo(order), nil
}

func buildTrackingInfo(order *models.Order) *TrackingInfo {
	info := &TrackingInfo{
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
		ShippingMethod: order.ShippingMethod,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
	}
	info.Timeline = append(info.Timeline, TrackingEvent{
		Status:      "placed",
		Date:        order.CreatedAt,
		Description: "Order placed successfully",
	})
	if order.Status != constants.OrderStatusPending {
		info.Timeline = append(info.Timeline, TrackingEvent{
			Status:      constants.OrderStatusConfirmed,
			Date:        order.CreatedAt,
			Description: "Payment confirmed and order processing started",
		})
	}
	if order.ShippedAt != nil {
		method := order.ShippingMethod
		if method == "" {
			method = "standard shipping"
		}
		info.Timeline = append(info.Timeline, TrackingEvent{
			Status:      constants.OrderStatusShipped,
			Date:        *order.ShippedAt,
			Description: fmt.Sprintf("Order shipped via %s", method),
		})
	}
	if order.DeliveredAt != nil {
		info.Timeline = append(info.Timeline, TrackingEvent{
			Status:      constants.OrderStatusDelivered,
			Date:        *order.DeliveredAt,
			Description: "Order delivered successfully",
		})
	}
	return info
}

func appendAdminNote(existing, note string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

func generateOrderNumber(prefix string, now time.Time) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "LO"
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%s-%d", prefix, now.Format("20060102"), now.UnixNano()%100000000)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}
