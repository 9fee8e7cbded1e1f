package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"staffdesk/internal/domain/hr/employee"
)

// CreateEmployeeRequest is the request body for hiring an employee.
type CreateEmployeeRequest struct {
	EmployeeNumber string                  `json:"employeeNumber"`
	FirstName      string                  `json:"firstName" binding:"required"`
	LastName       string                  `json:"lastName" binding:"required"`
	Email          string                  `json:"email" binding:"required"`
	Phone          *string                 `json:"phone"`
	JobTitle       string                  `json:"jobTitle"`
	DepartmentID   *string                 `json:"departmentId"`
	ManagerID      *string                 `json:"managerId"`
	EmploymentType employee.EmploymentType `json:"employmentType"`
	JoiningDate    Date                    `json:"joiningDate"`
	Remote         bool                    `json:"remote"`
	Salary         decimal.Decimal         `json:"salary"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateEmployeeRequest) ToEntity() (*employee.Employee, error) {
	e := employee.NewEmployee(strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName),
		strings.TrimSpace(r.Email), r.JoiningDate.Time)
	e.EmployeeNumber = strings.TrimSpace(r.EmployeeNumber)
	e.Phone = Trimmed(r.Phone)
	e.JobTitle = strings.TrimSpace(r.JobTitle)
	if r.EmploymentType != "" {
		e.EmploymentType = r.EmploymentType
	}
	e.Remote = r.Remote
	e.Salary = r.Salary

	var err error
	if e.DepartmentID, err = ParseOptionalID("departmentId", r.DepartmentID); err != nil {
		return nil, err
	}
	if e.ManagerID, err = ParseOptionalID("managerId", r.ManagerID); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEmployeeRequest is the request body for updating an employee.
type UpdateEmployeeRequest struct {
	FirstName        string                    `json:"firstName" binding:"required"`
	LastName         string                    `json:"lastName" binding:"required"`
	Email            string                    `json:"email" binding:"required"`
	Phone            *string                   `json:"phone"`
	JobTitle         string                    `json:"jobTitle"`
	DepartmentID     *string                   `json:"departmentId"`
	ManagerID        *string                   `json:"managerId"`
	Status           employee.Status           `json:"status" binding:"required"`
	EmploymentType   employee.EmploymentType   `json:"employmentType" binding:"required"`
	OnboardingStatus employee.OnboardingStatus `json:"onboardingStatus" binding:"required"`
	JoiningDate      Date                      `json:"joiningDate"`
	LeavingDate      *Date                     `json:"leavingDate"`
	Remote           bool                      `json:"remote"`
	Salary           decimal.Decimal           `json:"salary"`
	Version          int                       `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateEmployeeRequest) ApplyTo(e *employee.Employee) error {
	departmentID, err := ParseOptionalID("departmentId", r.DepartmentID)
	if err != nil {
		return err
	}
	managerID, err := ParseOptionalID("managerId", r.ManagerID)
	if err != nil {
		return err
	}

	e.FirstName = strings.TrimSpace(r.FirstName)
	e.LastName = strings.TrimSpace(r.LastName)
	e.Email = strings.TrimSpace(r.Email)
	e.Phone = Trimmed(r.Phone)
	e.JobTitle = strings.TrimSpace(r.JobTitle)
	e.DepartmentID = departmentID
	e.ManagerID = managerID
	e.Status = r.Status
	e.EmploymentType = r.EmploymentType
	e.OnboardingStatus = r.OnboardingStatus
	e.JoiningDate = r.JoiningDate.Time
	e.LeavingDate = r.LeavingDate.Ptr()
	e.Remote = r.Remote
	e.Salary = r.Salary
	e.Version = r.Version
	return nil
}

// TerminateEmployeeRequest ends an employment.
type TerminateEmployeeRequest struct {
	Version     int  `json:"version" binding:"required,min=1"`
	LeavingDate Date `json:"leavingDate"`
}
