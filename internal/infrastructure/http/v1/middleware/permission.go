package middleware

import (
	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	appctx "staffdesk/internal/core/context"
)

// RequirePermission middleware checks that the user holds permission.
// Admins hold every permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !user.HasPermission(permission) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required_permission", permission),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Allow is RequirePermission for action on entity.
func Allow(entity string, action appctx.Action) gin.HandlerFunc {
	return RequirePermission(appctx.Permission(entity, action))
}
