package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/metadata"
)

// MetadataHandler serves entity definitions so clients can build their
// filter panels and columns.
type MetadataHandler struct {
	registry *metadata.Registry
}

func NewMetadataHandler(registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{registry: registry}
}

// ListEntities returns every registered definition.
// GET /api/v1/meta
func (h *MetadataHandler) ListEntities(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.List())
}

// GetEntity returns one definition with its search schema.
// GET /api/v1/meta/:name
func (h *MetadataHandler) GetEntity(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Get(name)
	if !ok {
		_ = c.Error(apperror.NewNotFound("entity", name))
		c.Abort()
		return
	}
	schema := def.Schema()
	c.JSON(http.StatusOK, gin.H{
		"entity":           def,
		"searchableFields": schema.SearchableFields(),
		"searchFields":     schema.Fields(),
	})
}
