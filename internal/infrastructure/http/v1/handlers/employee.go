package handlers

import (
	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/infrastructure/http/v1/dto"
)

// EmployeeHandler handles employee endpoints.
type EmployeeHandler struct {
	*RecordHandler[*employee.Employee, dto.CreateEmployeeRequest, dto.UpdateEmployeeRequest]
	service *employee.Service
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(base *BaseHandler, service *employee.Service, opts RecordOptions) *EmployeeHandler {
	cfg := RecordHandlerConfig[*employee.Employee, dto.CreateEmployeeRequest, dto.UpdateEmployeeRequest]{
		Service:       service,
		Definition:    employee.Definition(),
		History:       opts.History,
		ExportMaxRows: opts.ExportMaxRows,
		MapCreateDTO: func(req dto.CreateEmployeeRequest) (*employee.Employee, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateEmployeeRequest, existing *employee.Employee) error {
			return req.ApplyTo(existing)
		},
	}
	return &EmployeeHandler{
		RecordHandler: NewRecordHandler(base, cfg),
		service:       service,
	}
}

// Terminate handles POST /employees/:id/terminate.
func (h *EmployeeHandler) Terminate(c *gin.Context) {
	employeeID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.TerminateEmployeeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.LeavingDate.IsZero() {
		h.Error(c, apperror.NewValidation("leaving date is required").WithDetail("field", "leavingDate"))
		return
	}

	e, err := h.service.Terminate(c.Request.Context(), employeeID, req.Version, req.LeavingDate.Time)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}
