package admin

import (
	"github.com/lumen-optics/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ShipOrderRequest 发货请求
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	ShippingMethod string `json:"shipping_method"`
}

// ShipOrder 订单发货
func (h *Handler) ShipOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.OrderService.Ship(orderID, req.TrackingNumber, req.ShippingMethod)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	operatorID, _ := getOperatorID(c)
	requestLog(c).Infow("admin_order_shipped", "operator_id", operatorID, "order_id", order.ID, "order_number", order.OrderNumber)
	response.SuccessWithMsg(c, "Order marked as shipped", order)
}

// DeliverOrder 订单送达
func (h *Handler) DeliverOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Deliver(orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Order marked as delivered", order)
}
