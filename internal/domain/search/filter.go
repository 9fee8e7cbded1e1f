package search

import (
	"encoding/json"
	"fmt"
)

// Operator is the comparison the filter bar shows next to a filter.
// The wire format carries only the value; the operator documents intent
// and is checked against the value kind.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpOn       Operator = "on"
	OpBetween  Operator = "between"
	OpIs       Operator = "is"
)

// IsValid reports whether o is a known operator.
func (o Operator) IsValid() bool {
	switch o {
	case OpEquals, OpContains, OpIn, OpOn, OpBetween, OpIs:
		return true
	}
	return false
}

// Accepts reports whether o can be applied to values of kind k.
func (o Operator) Accepts(k FilterKind) bool {
	switch k {
	case KindText:
		return o == OpEquals || o == OpContains
	case KindMultiselect:
		return o == OpIn
	case KindDate:
		return o == OpOn
	case KindDateRange:
		return o == OpBetween
	case KindBoolean:
		return o == OpIs
	}
	return false
}

// DefaultOperator returns the operator the filter bar uses for k.
func DefaultOperator(k FilterKind) Operator {
	switch k {
	case KindMultiselect:
		return OpIn
	case KindDate:
		return OpOn
	case KindDateRange:
		return OpBetween
	case KindBoolean:
		return OpIs
	default:
		return OpContains
	}
}

// ActiveFilter is one filter currently set in the UI.
type ActiveFilter struct {
	FilterID string      `json:"filterId"`
	Operator Operator    `json:"operator"`
	Value    FilterValue `json:"value"`
}

// NewFilter returns an active filter using the default operator for value.
func NewFilter(filterID string, value FilterValue) ActiveFilter {
	f := ActiveFilter{FilterID: filterID, Value: value}
	if value != nil {
		f.Operator = DefaultOperator(value.Kind())
	}
	return f
}

func (f *ActiveFilter) UnmarshalJSON(data []byte) error {
	var raw struct {
		FilterID string          `json:"filterId"`
		Operator Operator        `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, err := decodeValue(raw.Value)
	if err != nil {
		return fmt.Errorf("filter %s: %w", raw.FilterID, err)
	}
	// Single days travel as strings; the operator tells them apart from text.
	if text, ok := value.(TextValue); ok && raw.Operator == OpOn && text != "" {
		day, err := ParseDate(string(text))
		if err != nil {
			return fmt.Errorf("filter %s: %w", raw.FilterID, err)
		}
		value = day
	}

	*f = ActiveFilter{FilterID: raw.FilterID, Operator: raw.Operator, Value: value}
	return nil
}

// Empty reports whether the filter would be dropped from a request.
func (f ActiveFilter) Empty() bool {
	return f.FilterID == "" || f.Value == nil || f.Value.IsEmpty()
}

// Validate checks that the operator fits the value kind.
func (f ActiveFilter) Validate() error {
	if f.FilterID == "" {
		return fmt.Errorf("filter id is required")
	}
	if f.Value == nil {
		return nil
	}
	if !f.Operator.IsValid() {
		return fmt.Errorf("filter %s: unknown operator %q", f.FilterID, f.Operator)
	}
	if !f.Operator.Accepts(f.Value.Kind()) {
		return fmt.Errorf("filter %s: operator %q does not apply to %s values", f.FilterID, f.Operator, f.Value.Kind())
	}
	return nil
}

// Direction is the UI sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order maps the direction to its wire value. Unknown directions report false.
func (d Direction) Order() (SortOrder, bool) {
	switch d {
	case Asc:
		return Ascending, true
	case Desc:
		return Descending, true
	}
	return 0, false
}

// CurrentSort is the column the UI is sorted by.
type CurrentSort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}
