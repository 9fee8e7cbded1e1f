package dto

import (
	"strings"

	"staffdesk/internal/domain/visitor"
)

// CreateVisitorRequest registers an expected visit.
type CreateVisitorRequest struct {
	FullName       string          `json:"fullName" binding:"required"`
	Company        *string         `json:"company"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	HostEmployeeID string          `json:"hostEmployeeId" binding:"required"`
	Purpose        visitor.Purpose `json:"purpose" binding:"required"`
	ExpectedOn     Date            `json:"expectedOn"`
	Notes          *string         `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateVisitorRequest) ToEntity() (*visitor.Visitor, error) {
	host, err := ParseID("hostEmployeeId", r.HostEmployeeID)
	if err != nil {
		return nil, err
	}
	v := visitor.NewVisitor(strings.TrimSpace(r.FullName), host, r.Purpose, r.ExpectedOn.Time)
	v.Company = Trimmed(r.Company)
	v.Email = Trimmed(r.Email)
	v.Phone = Trimmed(r.Phone)
	v.Notes = Trimmed(r.Notes)
	return v, nil
}

// UpdateVisitorRequest edits the details of a visit. The status changes
// through the check-in, check-out and cancel endpoints only.
type UpdateVisitorRequest struct {
	FullName       string          `json:"fullName" binding:"required"`
	Company        *string         `json:"company"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	HostEmployeeID string          `json:"hostEmployeeId" binding:"required"`
	Purpose        visitor.Purpose `json:"purpose" binding:"required"`
	ExpectedOn     Date            `json:"expectedOn"`
	Notes          *string         `json:"notes"`
	Version        int             `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateVisitorRequest) ApplyTo(v *visitor.Visitor) error {
	host, err := ParseID("hostEmployeeId", r.HostEmployeeID)
	if err != nil {
		return err
	}
	v.FullName = strings.TrimSpace(r.FullName)
	v.Company = Trimmed(r.Company)
	v.Email = Trimmed(r.Email)
	v.Phone = Trimmed(r.Phone)
	v.HostEmployeeID = host
	v.Purpose = r.Purpose
	v.ExpectedOn = r.ExpectedOn.Time
	v.Notes = Trimmed(r.Notes)
	v.Version = r.Version
	return nil
}

// CheckInRequest records the arrival of a visitor.
type CheckInRequest struct {
	Version     int    `json:"version" binding:"required,min=1"`
	BadgeNumber string `json:"badgeNumber"`
}
