package middleware

import (
	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	appctx "staffdesk/internal/core/context"
	"staffdesk/pkg/logger"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Code      apperror.Code  `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Errors that are not AppErrors become a generic internal error so their
// text never reaches the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ctx := c.Request.Context()
		err := c.Errors.Last().Err

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			appErr = apperror.NewInternal(err)
		} else if appErr.Err != nil {
			log := logger.Warn
			if appErr.HTTPStatus >= 500 {
				log = logger.Error
			}
			log(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
		}

		c.JSON(appErr.HTTPStatus, ErrorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Details:   appErr.Details,
			RequestID: appctx.GetRequestID(ctx),
		})
	}
}
