package middleware

import (
	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/tx"
)

// Database middleware puts the transaction manager into the request context,
// where services and repositories look it up.
func Database(manager tx.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := tx.WithManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
