// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	appctx "staffdesk/internal/core/context"
	"staffdesk/pkg/logger"
)

// Recovery turns a panic into a 500 response. It sits outside ErrorHandler,
// so it renders the body itself. The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", rec,
				"stack", string(debug.Stack()),
			)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec))
			_ = c.Error(appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorBody{
				Code:      appErr.Code,
				Message:   appErr.Message,
				RequestID: appctx.GetRequestID(ctx),
			})
		}()
		c.Next()
	}
}
