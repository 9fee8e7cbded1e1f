package dto

import (
	"strings"

	"staffdesk/internal/domain/hr/department"
)

// CreateDepartmentRequest is the request body for creating a department.
type CreateDepartmentRequest struct {
	Code       string  `json:"code"`
	Name       string  `json:"name" binding:"required"`
	ParentID   *string `json:"parentId"`
	HeadID     *string `json:"headId"`
	CostCenter *string `json:"costCenter"`
	Location   *string `json:"location"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateDepartmentRequest) ToEntity() (*department.Department, error) {
	d := department.NewDepartment(strings.TrimSpace(r.Name))
	d.Code = strings.TrimSpace(r.Code)
	d.CostCenter = Trimmed(r.CostCenter)
	d.Location = Trimmed(r.Location)

	var err error
	if d.ParentID, err = ParseOptionalID("parentId", r.ParentID); err != nil {
		return nil, err
	}
	if d.HeadID, err = ParseOptionalID("headId", r.HeadID); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDepartmentRequest is the request body for updating a department.
type UpdateDepartmentRequest struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	ParentID   *string `json:"parentId"`
	HeadID     *string `json:"headId"`
	CostCenter *string `json:"costCenter"`
	Location   *string `json:"location"`
	Active     bool    `json:"active"`
	Version    int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateDepartmentRequest) ApplyTo(d *department.Department) error {
	parentID, err := ParseOptionalID("parentId", r.ParentID)
	if err != nil {
		return err
	}
	headID, err := ParseOptionalID("headId", r.HeadID)
	if err != nil {
		return err
	}

	d.Code = strings.TrimSpace(r.Code)
	d.Name = strings.TrimSpace(r.Name)
	d.ParentID = parentID
	d.HeadID = headID
	d.CostCenter = Trimmed(r.CostCenter)
	d.Location = Trimmed(r.Location)
	d.Active = r.Active
	d.Version = r.Version
	return nil
}
