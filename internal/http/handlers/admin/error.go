package admin

import (
	handlershared "github.com/lumen-optics/internal/http/handlers/shared"
	"github.com/lumen-optics/internal/http/response"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mappedHandlerError = handlershared.MappedError

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

func respondBindError(c *gin.Context, err error) {
	handlershared.RespondBindError(c, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError) {
	handlershared.RespondMappedError(c, err, rules)
}

var productErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrSKUExists, Code: response.CodeConflict},
	{Target: service.ErrSlugExists, Code: response.CodeConflict},
}, handlershared.CommonErrorRules)

var orderErrorRules = handlershared.CommonErrorRules

var refundErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrPaymentGateway, Code: response.CodeBadRequest, Message: "Payment processing error"},
}, handlershared.CommonErrorRules)

var uploadErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrFileNameInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrFileNotFound, Code: response.CodeNotFound},
}, handlershared.CommonErrorRules)
