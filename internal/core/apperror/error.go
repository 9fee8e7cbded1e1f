// Package apperror defines the errors the API reports to clients.
// Services return *AppError for anything a caller can act on; every other
// error is treated as internal and its text stays in the logs.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"

	CodeValidation Code = "VALIDATION_ERROR"

	CodeBusinessRule           Code = "BUSINESS_RULE_VIOLATION"
	CodeInvalidTransition      Code = "INVALID_STATUS_TRANSITION"
	CodeHasDependents          Code = "HAS_DEPENDENTS"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"

	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeDuplicate    Code = "DUPLICATE_ENTRY"
)

var statusByCode = map[Code]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeUnavailable:            http.StatusServiceUnavailable,
	CodeValidation:             http.StatusBadRequest,
	CodeBusinessRule:           http.StatusUnprocessableEntity,
	CodeInvalidTransition:      http.StatusUnprocessableEntity,
	CodeHasDependents:          http.StatusUnprocessableEntity,
	CodeConcurrentModification: http.StatusConflict,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeNotFound:               http.StatusNotFound,
	CodeConflict:               http.StatusConflict,
	CodeDuplicate:              http.StatusConflict,
}

// Status returns the HTTP status of c. Unknown codes are business rule
// violations.
func (c Code) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusUnprocessableEntity
}

// AppError is an error with a code, a client-safe message and details.
type AppError struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int `json:"-"`

	// Err is logged but never rendered
	Err error `json:"-"`
}

// New creates an error whose status follows from code.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: code.Status()}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one detail entry and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

func NewNotFound(entity string, id any) *AppError {
	return New(CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewBusinessRule reports a domain rule that forbids the operation.
func NewBusinessRule(code Code, message string) *AppError {
	return New(code, message)
}

// NewInvalidTransition reports a status change the lifecycle does not allow.
func NewInvalidTransition(entity, from, to string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("%s cannot move from %s to %s", entity, from, to)).
		WithDetail("entity", entity).
		WithDetail("from", from).
		WithDetail("to", to)
}

// NewConcurrentModification reports a failed optimistic lock.
func NewConcurrentModification(entity string, id any) *AppError {
	return New(CodeConcurrentModification, "record was changed by someone else, reload it and try again").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal wraps err behind a generic message.
func NewInternal(err error) *AppError {
	return New(CodeInternal, "internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

// NewUnavailable reports a dependency that cannot serve right now.
func NewUnavailable(dependency string, err error) *AppError {
	return New(CodeUnavailable, "service temporarily unavailable").
		WithDetail("dependency", dependency).
		WithCause(err)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

// NewDuplicate reports a unique value that is already taken.
func NewDuplicate(entity, field, value string) *AppError {
	return New(CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError finds the first AppError in the chain of err.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool { return Is(err, CodeNotFound) }

func IsValidation(err error) bool { return Is(err, CodeValidation) }

func IsConcurrentModification(err error) bool { return Is(err, CodeConcurrentModification) }
