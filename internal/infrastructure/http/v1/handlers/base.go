// Package handlers holds the gin handlers of API v1.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	appctx "staffdesk/internal/core/context"
	"staffdesk/internal/core/id"
)

// BaseHandler has the request parsing and response helpers every handler
// embeds. Failed helpers abort the request themselves and return false, so
// callers only need to return.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// Error hands err to middleware.ErrorHandler and stops the chain.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON decodes and validates the body into obj.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// QueryInt reads an integer query parameter. A missing parameter yields def.
func (h *BaseHandler) QueryInt(c *gin.Context, key string, def int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameter").
			WithDetail("field", key).
			WithDetail("value", raw))
		return 0, false
	}
	return n, true
}

// PathID parses the :id route parameter.
func (h *BaseHandler) PathID(c *gin.Context) (id.ID, bool) {
	raw := c.Param("id")
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail("value", raw))
		return id.ID{}, false
	}
	return parsed, true
}

// GetUserID returns the caller's id, or "" on public routes.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

func (h *BaseHandler) OK(c *gin.Context, body any)      { c.JSON(http.StatusOK, body) }
func (h *BaseHandler) Created(c *gin.Context, body any) { c.JSON(http.StatusCreated, body) }
func (h *BaseHandler) NoContent(c *gin.Context)         { c.Status(http.StatusNoContent) }
