package admin

import (
	"github.com/lumen-optics/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RefundRequest 退款请求，金额为空表示全额退款
type RefundRequest struct {
	OrderID uint             `json:"order_id" binding:"required"`
	Amount  *decimal.Decimal `json:"amount"`
	Reason  string           `json:"reason"`
}

// RefundPayment 管理员退款
func (h *Handler) RefundPayment(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		respondErrorWithMsg(c, response.CodeBadRequest, "Refund amount must be greater than zero", nil)
		return
	}
	result, err := h.PaymentService.RefundOrder(c.Request.Context(), req.OrderID, req.Amount)
	if err != nil {
		respondWithMappedError(c, err, refundErrorRules)
		return
	}
	operatorID, _ := getOperatorID(c)
	requestLog(c).Infow("admin_payment_refunded",
		"operator_id", operatorID,
		"order_id", req.OrderID,
		"refund_id", result.RefundID,
		"amount", result.Amount.String(),
		"reason", req.Reason,
	)
	response.SuccessWithMsg(c, "Refund processed successfully", result)
}
