// Package preferences stores per-user UI state such as the saved view
// (filters, search text and sort) of every list screen.
package preferences

import (
	"context"
	"encoding/json"
	"regexp"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/domain/search"
)

// MaxValueSize bounds one stored preference.
const MaxValueSize = 64 * 1024

var keyRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,63}$`)

// Store persists raw JSON preferences by user and key.
type Store interface {
	// Get returns the stored value. found is false when nothing is stored.
	Get(ctx context.Context, userID, key string) (value json.RawMessage, found bool, err error)
	Set(ctx context.Context, userID, key string, value json.RawMessage) error
}

// ValidateKey checks that key is usable as a preference name.
func ValidateKey(key string) error {
	if !keyRE.MatchString(key) {
		return apperror.NewValidation("invalid preference key").
			WithDetail("field", "key").
			WithDetail("value", key)
	}
	return nil
}

// ValidateValue checks that value is a JSON document of acceptable size.
func ValidateValue(value json.RawMessage) error {
	if len(value) == 0 || !json.Valid(value) {
		return apperror.NewValidation("preference value must be valid JSON").WithDetail("field", "value")
	}
	if len(value) > MaxValueSize {
		return apperror.NewValidation("preference value is too large").
			WithDetail("field", "value").
			WithDetail("max", MaxValueSize)
	}
	return nil
}

// SavedView is the state of a list screen that survives reloads.
type SavedView struct {
	Filters    []search.ActiveFilter `json:"filters,omitempty"`
	SearchText string                `json:"searchText,omitempty"`
	Sort       *search.CurrentSort   `json:"sort,omitempty"`
}

// Request builds the search request of the view.
func (v SavedView) Request(searchableFields []string) search.Request {
	return search.Build(v.Filters, v.SearchText, searchableFields, v.Sort)
}

// ViewKey returns the preference key of the saved view of entity.
func ViewKey(entity string) string {
	return "view." + entity
}
