package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	appctx "staffdesk/internal/core/context"
)

// TokenVerifier turns a bearer token into the calling user.
type TokenVerifier interface {
	Verify(raw string) (*appctx.UserContext, error)
}

// Auth requires an "Authorization: Bearer <token>" header and puts the
// user it names into the request context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization header")
			return
		}
		scheme, raw, found := strings.Cut(header, " ")
		raw = strings.TrimSpace(raw)
		if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
			unauthorized(c, "authorization header must be a bearer token")
			return
		}

		user, err := verifier.Verify(raw)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set("user_id", user.UserID)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
