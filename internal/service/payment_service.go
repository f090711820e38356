package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/metrics"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/payment/stripe"
	"github.com/lumen-optics/internal/repository"

	"github.com/shopspring/decimal"
)

// 意图元数据中记录的附加金额
const (
	metadataShippingAmount = "shipping_amount"
	metadataTaxAmount      = "tax_amount"
)

// PaymentService 支付服务
type PaymentService struct {
	cartRepo repository.CartRepository
	gateway  stripe.Gateway
	orderSvc *OrderService
	metrics  *metrics.CommerceMetrics
	currency string
}

// NewPaymentService 创建支付服务
func NewPaymentService(cartRepo repository.CartRepository, gateway stripe.Gateway, orderSvc *OrderService, m *metrics.CommerceMetrics, currency string) *PaymentService {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		cartRepo: cartRepo,
		gateway:  gateway,
		orderSvc: orderSvc,
		metrics:  m,
		currency: currency,
	}
}

// CreateIntentInput 创建支付意图输入
type CreateIntentInput struct {
	UserID         uint
	ShippingAmount models.Money
	TaxAmount      models.Money
}

// CreateIntentResult 创建支付意图结果
type CreateIntentResult struct {
	ClientSecret    string       `json:"client_secret"`
	PaymentIntentID string       `json:"payment_intent_id"`
	Amount          models.Money `json:"amount"`
	Currency        string       `json:"currency"`
}

// CreateIntent 校验购物车后按购物车金额创建支付意图
func (s *PaymentService) CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentResult, error) {
	if input.ShippingAmount.IsNegative() || input.TaxAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	items, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	if violations := collectCartViolations(items); len(violations) > 0 {
		return nil, &CartValidationError{Violations: violations}
	}

	subtotal := summarizeCart(items).Subtotal
	amount := models.NewMoneyFromDecimal(subtotal.Decimal.Add(input.ShippingAmount.Decimal).Add(input.TaxAmount.Decimal))
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if s.gateway == nil {
		return nil, ErrPaymentGateway
	}

	metadata := map[string]string{
		stripe.MetadataUserID:  strconv.FormatUint(uint64(input.UserID), 10),
		metadataShippingAmount: input.ShippingAmount.String(),
		metadataTaxAmount:      input.TaxAmount.String(),
	}
	started := time.Now()
	intent, err := s.gateway.CreateIntent(ctx, amount.Decimal, s.currency, metadata)
	s.metrics.ObserveGateway("create_intent", err, time.Since(started))
	if err != nil {
		logger.Errorw("payment_create_intent_failed", "user_id", input.UserID, "amount", amount.String(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return &CreateIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        intent.Currency,
	}, nil
}

// ConfirmPaymentInput 确认支付输入
type ConfirmPaymentInput struct {
	UserID          uint
	PaymentIntentID string
	BillingAddress  AddressSnapshot
	ShippingAddress AddressSnapshot
	ShippingMethod  string
	Notes           string
}

// ConfirmPayment 向网关确认意图已成功后生成订单
func (s *PaymentService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, bool, error) {
	intentID := strings.TrimSpace(input.PaymentIntentID)
	if intentID == "" {
		return nil, false, newValidationError(ErrInvalidInput, "payment_intent_id is required")
	}
	if s.gateway == nil {
		return nil, false, ErrPaymentGateway
	}
	started := time.Now()
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	s.metrics.ObserveGateway("retrieve_intent", err, time.Since(started))
	if err != nil {
		logger.Errorw("payment_retrieve_intent_failed", "user_id", input.UserID, "payment_intent_id", intentID, "error", err)
		return nil, false, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if !intent.Succeeded() {
		return nil, false, ErrPaymentNotSucceeded
	}
	if intent.UserID() != input.UserID {
		logger.Warnw("payment_confirm_user_mismatch", "user_id", input.UserID, "payment_intent_id", intentID)
		return nil, false, ErrPaymentUserMismatch
	}

	return s.orderSvc.CreateFromPayment(CreateOrderFromPaymentInput{
		UserID:          input.UserID,
		Intent:          intent,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
		ShippingMethod:  input.ShippingMethod,
		Notes:           input.Notes,
		ShippingAmount:  metadataMoney(intent.Metadata, metadataShippingAmount),
		TaxAmount:       metadataMoney(intent.Metadata, metadataTaxAmount),
	})
}

func metadataMoney(metadata map[string]string, key string) models.Money {
	raw := strings.TrimSpace(metadata[key])
	if raw == "" {
		return models.Money{}
	}
	amount, err := models.NewMoneyFromString(raw)
	if err != nil {
		return models.Money{}
	}
	return amount
}

// WebhookResult webhook 处理结果
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Outcome   string `json:"outcome"`
}

// HandleWebhook 校验签名并按事件类型更新已有订单
func (s *PaymentService) HandleWebhook(payload []byte, signature string) (*WebhookResult, error) {
	if s.gateway == nil {
		return nil, ErrPaymentGateway
	}
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		s.metrics.IncWebhookEvent("unknown", webhookOutcomeRejected)
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			logger.Warnw("payment_webhook_signature_invalid", "error", err)
		} else {
			logger.Warnw("payment_webhook_event_invalid", "error", err)
		}
		return nil, err
	}

	result := &WebhookResult{EventID: event.ID, EventType: event.Type, Outcome: "ignored"}
	switch {
	case event.IsPaymentSucceeded():
		result.Outcome, err = s.orderSvc.ApplyPaymentSucceeded(event.IntentID)
	case event.IsPaymentFailed():
		result.Outcome, err = s.orderSvc.ApplyPaymentFailed(event.IntentID)
	case event.IsDisputeCreated():
		logger.Warnw("payment_dispute_created",
			"event_id", event.ID,
			"payment_intent_id", event.IntentID,
			"amount", event.Amount.StringFixed(2),
			"currency", event.Currency,
			"status", event.Status,
		)
		result.Outcome = "logged"
	default:
		logger.Debugw("payment_webhook_event_ignored", "event_id", event.ID, "event_type", event.Type)
	}
	if err != nil {
		logger.Errorw("payment_webhook_apply_failed", "event_id", event.ID, "event_type", event.Type, "payment_intent_id", event.IntentID, "error", err)
		s.metrics.IncWebhookEvent(event.Type, "error")
		return nil, err
	}
	s.metrics.IncWebhookEvent(event.Type, result.Outcome)
	return result, nil
}

// PaymentMethod 支付方式
type PaymentMethod struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Brands []string `json:"brands"`
}

// PaymentMethods 可用支付方式
func (s *PaymentService) PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{
			Type:   "card",
			Name:   "Credit/Debit Card",
			Brands: []string{"visa", "mastercard", "amex", "discover"},
		},
	}
}

// RefundOrder 管理员退款
func (s *PaymentService) RefundOrder(ctx context.Context, orderID uint, amount *decimal.Decimal) (*RefundResult, error) {
	result, err := s.orderSvc.Refund(ctx, orderID, amount)
	if err != nil {
		return nil, err
	}
	if result.Full {
		logger.Infow("payment_refund_full", "order_id", orderID, "refund_id", result.RefundID, "payment_method", constants.PaymentMethodStripe)
	}
	return result, nil
}
