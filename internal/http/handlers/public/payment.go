package public

import (
	"io"
	"net/http"

	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 64 * 1024

// CreatePaymentIntentRequest 创建支付意图请求
type CreatePaymentIntentRequest struct {
	ShippingAmount models.Money `json:"shipping_amount"`
	TaxAmount      models.Money `json:"tax_amount"`
}

// ConfirmPaymentRequest 确认支付请求
type ConfirmPaymentRequest struct {
	PaymentIntentID string                  `json:"payment_intent_id" binding:"required"`
	BillingAddress  service.AddressSnapshot `json:"billing_address"`
	ShippingAddress service.AddressSnapshot `json:"shipping_address"`
	ShippingMethod  string                  `json:"shipping_method"`
	Notes           string                  `json:"notes"`
}

// CreatePaymentIntent 创建支付意图
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		respondBindError(c, err)
		return
	}
	result, err := h.PaymentService.CreateIntent(c.Request.Context(), service.CreateIntentInput{
		UserID:         uid,
		ShippingAmount: req.ShippingAmount,
		TaxAmount:      req.TaxAmount,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules)
		return
	}
	response.Success(c, result)
}

// ConfirmPayment 确认支付并生成订单
func (h *Handler) ConfirmPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, created, err := h.PaymentService.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentInput{
		UserID:          uid,
		PaymentIntentID: req.PaymentIntentID,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules)
		return
	}
	if created {
		response.Created(c, "Payment confirmed and order created", order)
		return
	}
	response.SuccessWithMsg(c, "Order already confirmed", order)
}

// PaymentMethods 可用支付方式
func (h *Handler) PaymentMethods(c *gin.Context) {
	response.Success(c, h.PaymentService.PaymentMethods())
}

// StripeWebhook Stripe webhook 回调，签名校验通过后才处理业务
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid payload", nil)
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		log.Warnw("stripe_webhook_signature_missing", "client_ip", c.ClientIP(), "body_size", len(body))
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid signature", nil)
		return
	}
	result, err := h.PaymentService.HandleWebhook(body, signature)
	if err != nil {
		respondWithMappedError(c, err, webhookErrorRules)
		return
	}
	log.Infow("stripe_webhook_handled", "event_id", result.EventID, "event_type", result.EventType, "outcome", result.Outcome)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
