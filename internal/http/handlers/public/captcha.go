package public

import (
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCaptcha 获取图片验证码
func (h *Handler) GetCaptcha(c *gin.Context) {
	if !h.CaptchaService.Enabled(constants.CaptchaSceneLogin) && !h.CaptchaService.Enabled(constants.CaptchaSceneRegister) {
		response.Success(c, gin.H{"enabled": false})
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondErrorWithMsg(c, response.CodeInternal, "Failed to generate captcha", err)
		return
	}
	response.Success(c, gin.H{
		"enabled":      true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
