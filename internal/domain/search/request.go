package search

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SortOrder is the wire value of a sort direction.
type SortOrder int

const (
	Ascending  SortOrder = 1
	Descending SortOrder = -1
)

func (o *SortOrder) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("sort order must be 1 or -1: %w", err)
	}
	switch SortOrder(n) {
	case Ascending, Descending:
		*o = SortOrder(n)
		return nil
	}
	return fmt.Errorf("sort order must be 1 or -1, got %d", n)
}

// Request is the universal search request.
// Zero-valued parts are omitted from JSON.
type Request struct {
	SearchText   string               `json:"searchText,omitempty"`
	SearchFields []string             `json:"searchFields,omitempty"`
	Filters      *Filters             `json:"filters,omitempty"`
	Sort         map[string]SortOrder `json:"sort,omitempty"`
	IDsList      []string             `json:"idsList,omitempty"`
}

// Filters wraps the conjunction of field filters.
type Filters struct {
	And Conjunction `json:"and"`
}

// Conjunction maps a field id to the value all results must match.
type Conjunction map[string]FilterValue

func (c *Conjunction) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("filters.and must be an object: %w", err)
	}

	out := make(Conjunction, len(raw))
	for field, msg := range raw {
		v, err := decodeValue(msg)
		if err != nil {
			return fmt.Errorf("filter %s: %w", field, err)
		}
		if v == nil || v.IsEmpty() {
			continue
		}
		out[field] = v
	}
	*c = out
	return nil
}

// Fields returns the filtered field ids in sorted order.
func (c Conjunction) Fields() []string {
	fields := make([]string, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Conditions returns the filter conjunction or nil.
func (r Request) Conditions() Conjunction {
	if r.Filters == nil {
		return nil
	}
	return r.Filters.And
}

// SortKey returns the single sort field, if any.
func (r Request) SortKey() (string, SortOrder, bool) {
	for field, order := range r.Sort {
		return field, order, true
	}
	return "", 0, false
}

// IsEmpty reports whether the request restricts nothing.
func (r Request) IsEmpty() bool {
	return r.SearchText == "" && len(r.Conditions()) == 0 && len(r.IDsList) == 0
}

// WithIDs returns a copy of r scoped to ids.
func (r Request) WithIDs(ids []string) Request {
	out := r.clone()
	out.IDsList = copyStrings(ids)
	return out
}

func (r Request) clone() Request {
	out := Request{
		SearchText:   r.SearchText,
		SearchFields: copyStrings(r.SearchFields),
		IDsList:      copyStrings(r.IDsList),
	}
	if r.Filters != nil {
		and := make(Conjunction, len(r.Filters.And))
		for k, v := range r.Filters.And {
			and[k] = v.clone()
		}
		out.Filters = &Filters{And: and}
	}
	if r.Sort != nil {
		out.Sort = make(map[string]SortOrder, len(r.Sort))
		for k, v := range r.Sort {
			out.Sort[k] = v
		}
	}
	return out
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
