// Package department provides the Department directory: the organizational
// units employees belong to.
package department

import (
	"context"
	"strings"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/metadata"
)

// EntityName is the record type name used in routes, audit and errors.
const EntityName = "department"

// Department is an organizational unit.
type Department struct {
	entity.BaseEntity

	// Code is unique, e.g. DEP-001. Generated when empty.
	Code string `db:"code" json:"code" search:"searchable,sortable"`

	Name string `db:"name" json:"name" binding:"required" search:"searchable,sortable"`

	// ParentID links to the enclosing department
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty" ref:"department" search:"filter=text"`

	// HeadID is the employee leading the department
	HeadID *id.ID `db:"head_id" json:"headId,omitempty" ref:"employee" label:"Head"`

	CostCenter *string `db:"cost_center" json:"costCenter,omitempty" search:"searchable,filter=text"`
	Location   *string `db:"location" json:"location,omitempty" search:"searchable,filter=text,partial"`
	Active     bool    `db:"is_active" json:"active" search:"filter=boolean"`
}

// NewDepartment creates an active department.
func NewDepartment(name string) *Department {
	return &Department{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
		Active:     true,
	}
}

// Validate implements entity.Record.
func (d *Department) Validate(ctx context.Context) error {
	if strings.TrimSpace(d.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(d.Name) > 150 {
		return apperror.NewValidation("name is too long").
			WithDetail("field", "name").
			WithDetail("max", 150)
	}
	if d.ParentID != nil && *d.ParentID == d.ID {
		return apperror.NewValidation("department cannot be its own parent").
			WithDetail("field", "parentId")
	}
	return nil
}

// Definition describes the department record to clients.
func Definition() metadata.EntityDef {
	def := metadata.Inspect(&Department{}, EntityName, metadata.TypeDirectory)
	def.Label = "Department"
	return def
}
