package public

import (
	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, perPage, ok := handlershared.QueryPage(c)
	if !ok {
		respondErrorWithMsg(c, response.CodeBadRequest, "Invalid pagination parameters", nil)
		return
	}
	orders, total, page, perPage, err := h.OrderService.List(service.ListOrdersInput{
		UserID:   uid,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, perPage, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(uid, orderID)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, order)
}

// GetOrderByNumber 按订单号查询
func (h *Handler) GetOrderByNumber(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByNumber(uid, c.Param("number"))
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Cancel(c.Request.Context(), uid, orderID)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Order cancelled successfully", order)
}

// TrackOrder 订单追踪
func (h *Handler) TrackOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	info, err := h.OrderService.Track(uid, orderID)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, info)
}
