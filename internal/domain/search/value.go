// Package search defines the universal search request shared by every list
// screen: free text over chosen fields, an AND of typed filters, a single
// sort key and an optional explicit id list.
package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// FilterKind identifies the shape of a filter value.
type FilterKind string

const (
	KindText        FilterKind = "text"
	KindMultiselect FilterKind = "multiselect"
	KindDate        FilterKind = "date"
	KindDateRange   FilterKind = "date_range"
	KindBoolean     FilterKind = "boolean"
)

// IsValid reports whether k is a known kind.
func (k FilterKind) IsValid() bool {
	switch k {
	case KindText, KindMultiselect, KindDate, KindDateRange, KindBoolean:
		return true
	}
	return false
}

// FilterValue is the tagged union of filter values.
// Only this package provides implementations.
type FilterValue interface {
	Kind() FilterKind
	// IsEmpty reports whether the value filters nothing and must be dropped.
	IsEmpty() bool

	clone() FilterValue
}

// TextValue is a free text filter.
type TextValue string

func (v TextValue) Kind() FilterKind   { return KindText }
func (v TextValue) IsEmpty() bool      { return v == "" }
func (v TextValue) clone() FilterValue { return v }
func (v TextValue) String() string     { return string(v) }

// MultiselectValue holds the selected options in selection order.
type MultiselectValue []string

func (v MultiselectValue) Kind() FilterKind { return KindMultiselect }
func (v MultiselectValue) IsEmpty() bool    { return len(v) == 0 }

func (v MultiselectValue) clone() FilterValue {
	out := make(MultiselectValue, len(v))
	copy(out, v)
	return out
}

// Values returns the selected options as a plain slice copy.
func (v MultiselectValue) Values() []string {
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// BooleanValue is a yes/no filter. It is never empty: an unset toggle is
// represented by leaving the filter out.
type BooleanValue bool

func (v BooleanValue) Kind() FilterKind   { return KindBoolean }
func (v BooleanValue) IsEmpty() bool      { return false }
func (v BooleanValue) clone() FilterValue { return v }

// DateValue is a calendar day without time of day.
type DateValue struct {
	day time.Time
}

// Date returns the DateValue for the given calendar day.
func Date(year int, month time.Month, day int) DateValue {
	return DateValue{day: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) DateValue {
	if t.IsZero() {
		return DateValue{}
	}
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (DateValue, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return DateValue{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateValue{day: t}, nil
}

func (v DateValue) Kind() FilterKind   { return KindDate }
func (v DateValue) IsEmpty() bool      { return v.day.IsZero() }
func (v DateValue) clone() FilterValue { return v }

// Time returns midnight UTC of the day.
func (v DateValue) Time() time.Time { return v.day }

func (v DateValue) String() string {
	if v.day.IsZero() {
		return ""
	}
	return v.day.Format(DateLayout)
}

func (v DateValue) MarshalJSON() ([]byte, error) {
	if v.day.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

func (v *DateValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = DateValue{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*v = DateValue{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// DateRangeValue is an inclusive range of days. Either bound may be open.
type DateRangeValue struct {
	From DateValue `json:"from"`
	To   DateValue `json:"to"`
}

func (v DateRangeValue) Kind() FilterKind   { return KindDateRange }
func (v DateRangeValue) IsEmpty() bool      { return v.From.IsEmpty() && v.To.IsEmpty() }
func (v DateRangeValue) clone() FilterValue { return v }

// Inverted reports whether both bounds are set and From is after To.
func (v DateRangeValue) Inverted() bool {
	return !v.From.IsEmpty() && !v.To.IsEmpty() && v.From.day.After(v.To.day)
}

func (v DateRangeValue) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, 2)
	if !v.From.IsEmpty() {
		out["from"] = v.From.String()
	}
	if !v.To.IsEmpty() {
		out["to"] = v.To.String()
	}
	return json.Marshal(out)
}

// decodeValue infers the union member from the JSON shape of raw.
// A nil value with nil error means JSON null.
func decodeValue(raw json.RawMessage) (FilterValue, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return TextValue(s), nil
	case '[':
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("multiselect values must be strings: %w", err)
		}
		return MultiselectValue(items), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return BooleanValue(b), nil
	case '{':
		var r DateRangeValue
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("date range: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("unsupported filter value %s", trimmed)
}
