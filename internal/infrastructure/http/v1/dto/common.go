// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/search"
)

// --- List Response ---

// ListResponse wraps plain list results.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// PageResponse is one page of universal search results.
type PageResponse struct {
	Content       any   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPageResponse maps a search page.
func NewPageResponse[T any](p search.Page[T], mapItem func(T) any) PageResponse {
	items := make([]any, len(p.Content))
	for i, item := range p.Content {
		items[i] = mapItem(item)
	}
	return PageResponse{
		Content:       items,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages(),
		Page:          p.Page,
		Size:          p.Size,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// --- Deletion ---

// SetDeletionMarkRequest sets or clears the mark of one record.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// BulkDeletionMarkRequest marks every record matching Request.
type BulkDeletionMarkRequest struct {
	Request search.Request `json:"request"`
	Marked  bool           `json:"marked"`
}

// BulkResult reports how many records a bulk call changed.
type BulkResult struct {
	Affected int64 `json:"affected"`
}

// --- State transitions ---

// VersionRequest carries the version a transition is based on.
type VersionRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// --- Values ---

// Date is a calendar day. It accepts "2006-01-02" and RFC 3339 input.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(search.DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	y, m, day := t.Date()
	d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(search.DateLayout))
}

// Ptr returns nil for the zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// ParseOptionalID parses an optional id field.
func ParseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	parsed, err := id.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, apperror.NewValidation("invalid id").WithDetail("field", field).WithDetail("value", *s)
	}
	return &parsed, nil
}

// ParseID parses a required id field.
func ParseID(field, s string) (id.ID, error) {
	parsed, err := ParseOptionalID(field, &s)
	if err != nil {
		return id.ID{}, err
	}
	if parsed == nil {
		return id.ID{}, apperror.NewValidation("id is required").WithDetail("field", field)
	}
	return *parsed, nil
}

// Trimmed returns nil for blank strings.
func Trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
