// Package employee provides the Employee directory.
package employee

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/metadata"
)

// EntityName is the record type name used in routes, audit and errors.
const EntityName = "employee"

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Status is the employment status.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusTerminated Status = "TERMINATED"
)

// EmploymentType is the kind of contract.
type EmploymentType string

const (
	FullTime EmploymentType = "FULL_TIME"
	PartTime EmploymentType = "PART_TIME"
	Contract EmploymentType = "CONTRACT"
	Intern   EmploymentType = "INTERN"
)

// OnboardingStatus tracks the first days of a new hire.
type OnboardingStatus string

const (
	OnboardingPending    OnboardingStatus = "PENDING"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

// Employee is a person employed by the organization.
type Employee struct {
	entity.BaseEntity

	// EmployeeNumber is unique, e.g. EMP-2025-00042. Generated when empty.
	EmployeeNumber string `db:"employee_number" json:"employeeNumber" search:"searchable,sortable"`

	FirstName string  `db:"first_name" json:"firstName" binding:"required" search:"searchable,sortable"`
	LastName  string  `db:"last_name" json:"lastName" binding:"required" search:"searchable,sortable"`
	Email     string  `db:"email" json:"email" binding:"required" search:"searchable,sortable"`
	Phone     *string `db:"phone" json:"phone,omitempty" search:"searchable"`
	JobTitle  string  `db:"job_title" json:"jobTitle" search:"searchable,sortable,filter=text,partial"`

	DepartmentID *id.ID `db:"department_id" json:"departmentId,omitempty" label:"Department" search:"filter=multiselect"`
	ManagerID    *id.ID `db:"manager_id" json:"managerId,omitempty" ref:"employee" label:"Manager" search:"filter=text"`

	Status           Status           `db:"status" json:"status" search:"sortable,filter=multiselect,options=ACTIVE|ON_LEAVE|TERMINATED"`
	EmploymentType   EmploymentType   `db:"employment_type" json:"employmentType" search:"filter=multiselect,options=FULL_TIME|PART_TIME|CONTRACT|INTERN"`
	OnboardingStatus OnboardingStatus `db:"onboarding_status" json:"onboardingStatus" search:"filter=multiselect,options=PENDING|IN_PROGRESS|COMPLETED"`

	JoiningDate time.Time  `db:"joining_date" json:"joiningDate" search:"sortable,filter=date_range"`
	LeavingDate *time.Time `db:"leaving_date" json:"leavingDate,omitempty" search:"filter=date_range"`

	Remote bool            `db:"is_remote" json:"remote" search:"filter=boolean"`
	Salary decimal.Decimal `db:"salary" json:"salary"`
}

// NewEmployee creates an active full-time employee who still needs onboarding.
func NewEmployee(firstName, lastName, email string, joined time.Time) *Employee {
	return &Employee{
		BaseEntity:       entity.NewBaseEntity(),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Status:           StatusActive,
		EmploymentType:   FullTime,
		OnboardingStatus: OnboardingPending,
		JoiningDate:      joined,
	}
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Validate implements entity.Record.
func (e *Employee) Validate(ctx context.Context) error {
	if strings.TrimSpace(e.FirstName) == "" {
		return apperror.NewValidation("first name is required").WithDetail("field", "firstName")
	}
	if strings.TrimSpace(e.LastName) == "" {
		return apperror.NewValidation("last name is required").WithDetail("field", "lastName")
	}
	if !emailRE.MatchString(e.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email").
			WithDetail("value", e.Email)
	}
	if !isValidStatus(e.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(e.Status))
	}
	if !isValidEmploymentType(e.EmploymentType) {
		return apperror.NewValidation("invalid employment type").
			WithDetail("field", "employmentType").
			WithDetail("value", string(e.EmploymentType))
	}
	if !isValidOnboardingStatus(e.OnboardingStatus) {
		return apperror.NewValidation("invalid onboarding status").
			WithDetail("field", "onboardingStatus").
			WithDetail("value", string(e.OnboardingStatus))
	}
	if e.JoiningDate.IsZero() {
		return apperror.NewValidation("joining date is required").WithDetail("field", "joiningDate")
	}
	if e.LeavingDate != nil && e.LeavingDate.Before(e.JoiningDate) {
		return apperror.NewValidation("leaving date is before joining date").WithDetail("field", "leavingDate")
	}
	if e.Status == StatusTerminated && e.LeavingDate == nil {
		return apperror.NewValidation("terminated employee needs a leaving date").WithDetail("field", "leavingDate")
	}
	if e.Salary.IsNegative() {
		return apperror.NewValidation("salary must not be negative").WithDetail("field", "salary")
	}
	if e.ManagerID != nil && *e.ManagerID == e.ID {
		return apperror.NewValidation("employee cannot manage themselves").WithDetail("field", "managerId")
	}
	return nil
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusOnLeave, StatusTerminated:
		return true
	}
	return false
}

func isValidEmploymentType(t EmploymentType) bool {
	switch t {
	case FullTime, PartTime, Contract, Intern:
		return true
	}
	return false
}

func isValidOnboardingStatus(s OnboardingStatus) bool {
	switch s {
	case OnboardingPending, OnboardingInProgress, OnboardingCompleted:
		return true
	}
	return false
}

// Definition describes the employee record to clients.
func Definition() metadata.EntityDef {
	def := metadata.Inspect(&Employee{}, EntityName, metadata.TypeDirectory)
	def.Label = "Employee"
	return def
}
