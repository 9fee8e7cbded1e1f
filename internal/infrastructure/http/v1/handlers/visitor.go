package handlers

import (
	"github.com/gin-gonic/gin"

	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/infrastructure/http/v1/dto"
)

// VisitorHandler handles visitor endpoints.
type VisitorHandler struct {
	*RecordHandler[*visitor.Visitor, dto.CreateVisitorRequest, dto.UpdateVisitorRequest]
	service *visitor.Service
}

// NewVisitorHandler creates a new visitor handler.
func NewVisitorHandler(base *BaseHandler, service *visitor.Service, opts RecordOptions) *VisitorHandler {
	cfg := RecordHandlerConfig[*visitor.Visitor, dto.CreateVisitorRequest, dto.UpdateVisitorRequest]{
		Service:       service,
		Definition:    visitor.Definition(),
		History:       opts.History,
		ExportMaxRows: opts.ExportMaxRows,
		MapCreateDTO: func(req dto.CreateVisitorRequest) (*visitor.Visitor, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateVisitorRequest, existing *visitor.Visitor) error {
			return req.ApplyTo(existing)
		},
	}
	return &VisitorHandler{
		RecordHandler: NewRecordHandler(base, cfg),
		service:       service,
	}
}

// CheckIn handles POST /visitors/:id/check-in.
func (h *VisitorHandler) CheckIn(c *gin.Context) {
	visitID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.CheckInRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.service.CheckIn(c.Request.Context(), visitID, req.Version, req.BadgeNumber)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// CheckOut handles POST /visitors/:id/check-out.
func (h *VisitorHandler) CheckOut(c *gin.Context) {
	visitID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.VersionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.service.CheckOut(c.Request.Context(), visitID, req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Cancel handles POST /visitors/:id/cancel.
func (h *VisitorHandler) Cancel(c *gin.Context) {
	visitID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.VersionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.service.Cancel(c.Request.Context(), visitID, req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}
