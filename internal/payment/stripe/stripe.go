package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrGatewayRequest   = errors.New("stripe request failed")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
	ErrEventInvalid     = errors.New("stripe event invalid")
)

const (
	defaultCurrency           = "usd"
	defaultTimeout            = 30 * time.Second
	defaultWebhookToleranceS  = 300
	intentStatusSucceeded     = string(stripeapi.PaymentIntentStatusSucceeded)
	MetadataUserID            = "user_id"
	eventPaymentSucceeded     = "payment_intent.succeeded"
	eventPaymentFailed        = "payment_intent.payment_failed"
	eventChargeDisputeCreated = "charge.dispute.created"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Gateway 支付网关适配接口
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
	Refund(ctx context.Context, intentID string, amount *decimal.Decimal) (*Refund, error)
}

// Config Stripe 网关配置
type Config struct {
	SecretKey               string
	WebhookSecret           string
	Currency                string
	Timeout                 time.Duration
	WebhookToleranceSeconds int
}

// Intent 支付意图
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// Succeeded 是否已支付成功
func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == intentStatusSucceeded
}

// UserID 创建意图时写入的用户 ID
func (i *Intent) UserID() uint {
	if i == nil || i.Metadata == nil {
		return 0
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(i.Metadata[MetadataUserID]), 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

// Refund 退款结果
type Refund struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// WebhookEvent 已验签的回调事件
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
	Status   string
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
}

// IsPaymentSucceeded 支付成功事件
func (e *WebhookEvent) IsPaymentSucceeded() bool {
	return e != nil && e.Type == eventPaymentSucceeded
}

// IsPaymentFailed 支付失败事件
func (e *WebhookEvent) IsPaymentFailed() bool {
	return e != nil && e.Type == eventPaymentFailed
}

// IsDisputeCreated 争议事件
func (e *WebhookEvent) IsDisputeCreated() bool {
	return e != nil && e.Type == eventChargeDisputeCreated
}

type intentAPI interface {
	New(params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
	Get(id string, params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
}

type refundAPI interface {
	New(params *stripeapi.RefundParams) (*stripeapi.Refund, error)
}

// Client 基于 stripe-go 的网关实现
type Client struct {
	cfg     Config
	intents intentAPI
	refunds refundAPI
}

// NewClient 创建 Stripe 网关
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	backends := stripeapi.NewBackends(&http.Client{Timeout: cfg.Timeout})
	sc := client.New(cfg.SecretKey, backends)
	return &Client{
		cfg:     cfg,
		intents: sc.PaymentIntents,
		refunds: sc.Refunds,
	}, nil
}

func newClientWithAPI(cfg Config, intents intentAPI, refunds refundAPI) *Client {
	cfg.normalize()
	return &Client{cfg: cfg, intents: intents, refunds: refunds}
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
}

// CreateIntent 创建支付意图
func (c *Client) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error) {
	currency = c.resolveCurrency(currency)
	minor, err := ToMinorAmount(amount, currency)
	if err != nil {
		return nil, err
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(minor),
		Currency: stripeapi.String(currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", ErrGatewayRequest, err)
	}
	return toIntent(intent), nil
}

// RetrieveIntent 查询支付意图
func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", ErrGatewayRequest)
	}
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx
	intent, err := c.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve payment intent: %v", ErrGatewayRequest, err)
	}
	return toIntent(intent), nil
}

// Refund 退款（amount 为空时全额退款）
func (c *Client) Refund(ctx context.Context, intentID string, amount *decimal.Decimal) (*Refund, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", ErrGatewayRequest)
	}
	params := &stripeapi.RefundParams{
		PaymentIntent: stripeapi.String(intentID),
	}
	params.Context = ctx
	if amount != nil {
		minor, err := ToMinorAmount(*amount, c.cfg.Currency)
		if err != nil {
			return nil, err
		}
		params.Amount = stripeapi.Int64(minor)
	}

	refund, err := c.refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: refund payment intent: %v", ErrGatewayRequest, err)
	}
	currency := strings.ToLower(string(refund.Currency))
	if currency == "" {
		currency = c.cfg.Currency
	}
	return &Refund{
		ID:       refund.ID,
		Status:   string(refund.Status),
		Amount:   FromMinorAmount(refund.Amount, currency),
		Currency: currency,
	}, nil
}

// VerifyWebhook 验签并解析回调事件
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                time.Duration(c.cfg.WebhookToleranceSeconds) * time.Second,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return parseEvent(event)
}

func parseEvent(event stripeapi.Event) (*WebhookEvent, error) {
	result := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return result, nil
	}

	switch result.Type {
	case eventPaymentSucceeded, eventPaymentFailed:
		var intent stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: decode payment intent: %v", ErrEventInvalid, err)
		}
		if intent.ID == "" {
			return nil, fmt.Errorf("%w: missing payment intent id", ErrEventInvalid)
		}
		converted := toIntent(&intent)
		result.IntentID = converted.ID
		result.Status = converted.Status
		result.Amount = converted.Amount
		result.Currency = converted.Currency
		result.Metadata = converted.Metadata
	case eventChargeDisputeCreated:
		var dispute stripeapi.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return nil, fmt.Errorf("%w: decode dispute: %v", ErrEventInvalid, err)
		}
		if dispute.PaymentIntent != nil {
			result.IntentID = dispute.PaymentIntent.ID
		}
		result.Status = string(dispute.Status)
		result.Currency = strings.ToLower(string(dispute.Currency))
		result.Amount = FromMinorAmount(dispute.Amount, result.Currency)
	}
	return result, nil
}

func (c *Client) resolveCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return c.cfg.Currency
	}
	return currency
}

func toIntent(intent *stripeapi.PaymentIntent) *Intent {
	if intent == nil {
		return nil
	}
	currency := strings.ToLower(string(intent.Currency))
	metadata := make(map[string]string, len(intent.Metadata))
	for k, v := range intent.Metadata {
		metadata[k] = v
	}
	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       FromMinorAmount(intent.Amount, currency),
		Currency:     currency,
		Metadata:     metadata,
	}
}

// ToMinorAmount 金额转换为最小货币单位
func ToMinorAmount(amount decimal.Decimal, currency string) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	scale := currencyScale(currency)
	minor := amount.Shift(int32(scale))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision is invalid", ErrConfigInvalid)
	}
	return minor.IntPart(), nil
}

// FromMinorAmount 最小货币单位转换为金额
func FromMinorAmount(minor int64, currency string) decimal.Decimal {
	scale := currencyScale(currency)
	return decimal.NewFromInt(minor).Shift(int32(-scale))
}

func currencyScale(currency string) int {
	upper := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[upper]; ok {
		return 0
	}
	return 2
}
