// Package visitor provides the visitor log: expected guests, their check-in
// and check-out at reception.
package visitor

import (
	"context"
	"strings"
	"time"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/metadata"
)

// EntityName is the record type name used in routes, audit and errors.
const EntityName = "visitor"

// Status is the state of a visit.
//
//	EXPECTED -> CHECKED_IN -> CHECKED_OUT
//	EXPECTED -> CANCELLED
type Status string

const (
	StatusExpected   Status = "EXPECTED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
)

// Purpose is the reason for a visit.
type Purpose string

const (
	PurposeMeeting     Purpose = "MEETING"
	PurposeInterview   Purpose = "INTERVIEW"
	PurposeDelivery    Purpose = "DELIVERY"
	PurposeMaintenance Purpose = "MAINTENANCE"
	PurposeOther       Purpose = "OTHER"
)

// Visitor is one visit of a guest.
type Visitor struct {
	entity.BaseEntity

	// VisitNumber is unique, e.g. VIS-2025-00017. Generated when empty.
	VisitNumber string `db:"visit_number" json:"visitNumber" search:"searchable,sortable"`

	FullName string  `db:"full_name" json:"fullName" binding:"required" search:"searchable,sortable"`
	Company  *string `db:"company" json:"company,omitempty" search:"searchable,sortable,filter=text,partial"`
	Email    *string `db:"email" json:"email,omitempty" search:"searchable"`
	Phone    *string `db:"phone" json:"phone,omitempty" search:"searchable"`

	HostEmployeeID id.ID   `db:"host_employee_id" json:"hostEmployeeId" binding:"required" ref:"employee" label:"Host" search:"filter=multiselect"`
	Purpose        Purpose `db:"purpose" json:"purpose" search:"filter=multiselect,options=MEETING|INTERVIEW|DELIVERY|MAINTENANCE|OTHER"`
	Status         Status  `db:"status" json:"status" search:"sortable,filter=multiselect,options=EXPECTED|CHECKED_IN|CHECKED_OUT|CANCELLED"`

	ExpectedOn   time.Time  `db:"expected_on" json:"expectedOn" search:"sortable,filter=date"`
	CheckedInAt  *time.Time `db:"checked_in_at" json:"checkedInAt,omitempty" search:"sortable"`
	CheckedOutAt *time.Time `db:"checked_out_at" json:"checkedOutAt,omitempty"`
	BadgeNumber  *string    `db:"badge_number" json:"badgeNumber,omitempty" search:"searchable"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
}

// NewVisitor creates an expected visit.
func NewVisitor(fullName string, host id.ID, purpose Purpose, expectedOn time.Time) *Visitor {
	return &Visitor{
		BaseEntity:     entity.NewBaseEntity(),
		FullName:       fullName,
		HostEmployeeID: host,
		Purpose:        purpose,
		Status:         StatusExpected,
		ExpectedOn:     expectedOn,
	}
}

// Validate implements entity.Record.
func (v *Visitor) Validate(ctx context.Context) error {
	if strings.TrimSpace(v.FullName) == "" {
		return apperror.NewValidation("full name is required").WithDetail("field", "fullName")
	}
	if id.IsNil(v.HostEmployeeID) {
		return apperror.NewValidation("host employee is required").WithDetail("field", "hostEmployeeId")
	}
	if !isValidPurpose(v.Purpose) {
		return apperror.NewValidation("invalid purpose").
			WithDetail("field", "purpose").
			WithDetail("value", string(v.Purpose))
	}
	if !isValidStatus(v.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(v.Status))
	}
	if v.ExpectedOn.IsZero() {
		return apperror.NewValidation("expected date is required").WithDetail("field", "expectedOn")
	}
	if v.CheckedInAt != nil && v.CheckedOutAt != nil && v.CheckedOutAt.Before(*v.CheckedInAt) {
		return apperror.NewValidation("check-out is before check-in").WithDetail("field", "checkedOutAt")
	}
	return nil
}

// CheckIn registers the arrival of the visitor.
func (v *Visitor) CheckIn(at time.Time, badge string) error {
	if v.Status != StatusExpected {
		return apperror.NewInvalidTransition(EntityName, string(v.Status), string(StatusCheckedIn))
	}
	v.Status = StatusCheckedIn
	v.CheckedInAt = &at
	if badge = strings.TrimSpace(badge); badge != "" {
		v.BadgeNumber = &badge
	}
	return nil
}

// CheckOut registers the departure of the visitor.
func (v *Visitor) CheckOut(at time.Time) error {
	if v.Status != StatusCheckedIn {
		return apperror.NewInvalidTransition(EntityName, string(v.Status), string(StatusCheckedOut))
	}
	if v.CheckedInAt != nil && at.Before(*v.CheckedInAt) {
		at = *v.CheckedInAt
	}
	v.Status = StatusCheckedOut
	v.CheckedOutAt = &at
	return nil
}

// Cancel calls off a visit that has not started.
func (v *Visitor) Cancel() error {
	if v.Status != StatusExpected {
		return apperror.NewInvalidTransition(EntityName, string(v.Status), string(StatusCancelled))
	}
	v.Status = StatusCancelled
	return nil
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusExpected, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

func isValidPurpose(p Purpose) bool {
	switch p {
	case PurposeMeeting, PurposeInterview, PurposeDelivery, PurposeMaintenance, PurposeOther:
		return true
	}
	return false
}

// Definition describes the visitor record to clients.
func Definition() metadata.EntityDef {
	def := metadata.Inspect(&Visitor{}, EntityName, metadata.TypeJournal)
	def.Label = "Visitor"
	return def
}
