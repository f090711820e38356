package public

import (
	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/payment/stripe"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError) {
	handlershared.RespondMappedError(c, err, rules)
}

var commonErrorRules = handlershared.CommonErrorRules

var authErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Message: "Validation failed"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Message: "Invalid email or password"},
	{Target: service.ErrUserDisabled, Code: response.CodeForbidden, Message: "Account is disabled"},
}, commonErrorRules)

var paymentErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrPaymentGateway, Code: response.CodeBadRequest, Message: "Payment processing error"},
	{Target: service.ErrPaymentNotSucceeded, Code: response.CodeBadRequest, Message: "Payment not completed"},
	{Target: service.ErrPaymentUserMismatch, Code: response.CodeForbidden},
	{Target: service.ErrPaymentAmountMismatch, Code: response.CodeBadRequest},
}, commonErrorRules)

var webhookErrorRules = []mappedHandlerError{
	{Target: stripe.ErrSignatureInvalid, Code: response.CodeBadRequest, Message: "Invalid signature"},
	{Target: stripe.ErrEventInvalid, Code: response.CodeBadRequest, Message: "Invalid payload"},
	{Target: service.ErrPaymentGateway, Code: response.CodeBadRequest, Message: "Payment processing error"},
}

var arErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrNotEyewear, Code: response.CodeBadRequest},
	{Target: service.ErrProductImageMissing, Code: response.CodeBadRequest},
	{Target: service.ErrARProcessingFailed, Code: response.CodeBadRequest, Message: "AR processing failed"},
	{Target: service.ErrARServiceUnavailable, Code: response.CodeServiceUnavailable, Message: "AR service temporarily unavailable"},
}, commonErrorRules)
