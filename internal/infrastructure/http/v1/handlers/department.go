package handlers

import (
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/infrastructure/http/v1/dto"
)

// DepartmentHandler handles department endpoints.
type DepartmentHandler = RecordHandler[*department.Department, dto.CreateDepartmentRequest, dto.UpdateDepartmentRequest]

// NewDepartmentHandler creates a new department handler.
func NewDepartmentHandler(base *BaseHandler, service *department.Service, opts RecordOptions) *DepartmentHandler {
	return NewRecordHandler(base, RecordHandlerConfig[*department.Department, dto.CreateDepartmentRequest, dto.UpdateDepartmentRequest]{
		Service:       service,
		Definition:    department.Definition(),
		History:       opts.History,
		ExportMaxRows: opts.ExportMaxRows,
		MapCreateDTO: func(req dto.CreateDepartmentRequest) (*department.Department, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateDepartmentRequest, existing *department.Department) error {
			return req.ApplyTo(existing)
		},
	})
}
