package public

import (
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 资料更新请求
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	DateOfBirth *string `json:"date_of_birth"`
}

// GetProfile 获取个人资料
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.GetProfile(uid)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.UserService.UpdateProfile(uid, service.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Profile updated successfully", user)
}

// ListAddresses 地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addresses, err := h.UserService.ListAddresses(uid, c.Query("type"))
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, addresses)
}

// CreateAddress 新增地址
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req service.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	address, err := h.UserService.CreateAddress(uid, req)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Created(c, "Address created successfully", address)
}

// UpdateAddress 更新地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	address, err := h.UserService.UpdateAddress(uid, addressID, req)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Address updated successfully", address)
}

// DeleteAddress 删除地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserService.DeleteAddress(uid, addressID); err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Address deleted successfully", gin.H{"deleted": true})
}

// ListPrescriptions 处方列表
func (h *Handler) ListPrescriptions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, err := h.UserService.ListPrescriptions(uid)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Success(c, rows)
}

// CreatePrescription 新增处方
func (h *Handler) CreatePrescription(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req service.PrescriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	row, err := h.UserService.CreatePrescription(uid, req)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.Created(c, "Prescription created successfully", row)
}

// UpdatePrescription 更新处方
func (h *Handler) UpdatePrescription(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	prescriptionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.PrescriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	row, err := h.UserService.UpdatePrescription(uid, prescriptionID, req)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Prescription updated successfully", row)
}

// DeletePrescription 删除处方
func (h *Handler) DeletePrescription(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	prescriptionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserService.DeletePrescription(uid, prescriptionID); err != nil {
		respondWithMappedError(c, err, commonErrorRules)
		return
	}
	response.SuccessWithMsg(c, "Prescription deleted successfully", gin.H{"deleted": true})
}
