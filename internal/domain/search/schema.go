package search

import (
	"slices"
	"strings"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/id"
)

// MaxSearchTextLength bounds the free text a request may carry.
const MaxSearchTextLength = 200

// Field describes how one entity field takes part in search.
// Partial makes a text filter match substrings instead of the whole value.
type Field struct {
	ID         string     `json:"id"`
	Column     string     `json:"-"`
	Label      string     `json:"label,omitempty"`
	Kind       FilterKind `json:"kind,omitempty"`
	Searchable bool       `json:"searchable,omitempty"`
	Sortable   bool       `json:"sortable,omitempty"`
	Partial    bool       `json:"partial,omitempty"`
	Options    []string   `json:"options,omitempty"`
}

// Filterable reports whether the field accepts filters.
func (f Field) Filterable() bool {
	return f.Kind != ""
}

// Schema lists the searchable, filterable and sortable fields of an entity.
// It is immutable after construction.
type Schema struct {
	entity string
	fields map[string]Field
	order  []string
}

// NewSchema creates a schema. Later fields with a repeated id replace earlier ones.
func NewSchema(entity string, fields []Field) *Schema {
	s := &Schema{
		entity: entity,
		fields: make(map[string]Field, len(fields)),
		order:  make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		if _, seen := s.fields[f.ID]; !seen {
			s.order = append(s.order, f.ID)
		}
		if f.Column == "" {
			f.Column = f.ID
		}
		s.fields[f.ID] = f
	}
	return s
}

// Entity returns the entity name the schema belongs to.
func (s *Schema) Entity() string {
	return s.entity
}

// Field looks up a field by its wire id.
func (s *Schema) Field(fieldID string) (Field, bool) {
	f, ok := s.fields[fieldID]
	return f, ok
}

// Fields returns all fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, fid := range s.order {
		out = append(out, s.fields[fid])
	}
	return out
}

// SearchableFields returns the ids of free-text searchable fields.
func (s *Schema) SearchableFields() []string {
	var out []string
	for _, fid := range s.order {
		if s.fields[fid].Searchable {
			out = append(out, fid)
		}
	}
	return out
}

// Prepare normalizes req against the schema and validates it.
//
// Text values are coerced into the kind of the target field where the
// intent is unambiguous (a day string on a date field, a single option on a
// multiselect field, "true"/"false" on a boolean field). A search text
// without fields is applied to every searchable field.
func (s *Schema) Prepare(req Request) (Request, error) {
	out := req.clone()
	var problems validationProblems

	out.SearchText = strings.TrimSpace(out.SearchText)
	if out.SearchText == "" {
		out.SearchFields = nil
	} else {
		if len([]rune(out.SearchText)) > MaxSearchTextLength {
			problems.add("searchText", "too long")
		}
		if len(out.SearchFields) == 0 {
			out.SearchFields = s.SearchableFields()
		}
		for _, fid := range out.SearchFields {
			if f, ok := s.fields[fid]; !ok || !f.Searchable {
				problems.add(fid, "not searchable")
			}
		}
	}

	if out.Filters != nil {
		for _, fid := range out.Filters.And.Fields() {
			value := out.Filters.And[fid]
			f, ok := s.fields[fid]
			if !ok || !f.Filterable() {
				problems.add(fid, "unknown filter")
				delete(out.Filters.And, fid)
				continue
			}
			coerced, reason := coerce(f, value)
			if reason != "" {
				problems.add(fid, reason)
				continue
			}
			out.Filters.And[fid] = coerced
		}
		if len(out.Filters.And) == 0 {
			out.Filters = nil
		}
	}

	if len(out.Sort) > 1 {
		problems.add("sort", "only one sort field is supported")
	}
	for fid := range out.Sort {
		if f, ok := s.fields[fid]; !ok || !f.Sortable {
			problems.add(fid, "not sortable")
		}
	}

	for _, raw := range out.IDsList {
		if _, err := id.Parse(raw); err != nil {
			problems.add("idsList", "invalid id "+raw)
		}
	}

	if err := problems.err(s.entity); err != nil {
		return Request{}, err
	}
	return out, nil
}

// coerce converts value into the kind expected by f.
// It returns a non-empty reason when the value cannot be used.
func coerce(f Field, value FilterValue) (FilterValue, string) {
	switch f.Kind {
	case KindText:
		if v, ok := value.(TextValue); ok {
			return v, ""
		}

	case KindMultiselect:
		var selected MultiselectValue
		switch v := value.(type) {
		case MultiselectValue:
			selected = v
		case TextValue:
			selected = MultiselectValue{string(v)}
		default:
			return nil, kindMismatch(f, value)
		}
		if len(f.Options) > 0 {
			for _, opt := range selected {
				if !slices.Contains(f.Options, opt) {
					return nil, "unknown option " + opt
				}
			}
		}
		return selected, ""

	case KindDate, KindDateRange:
		switch v := value.(type) {
		case DateValue:
			return v, ""
		case DateRangeValue:
			if v.Inverted() {
				return nil, "range start is after range end"
			}
			return v, ""
		case TextValue:
			day, err := ParseDate(string(v))
			if err != nil {
				return nil, "invalid date " + string(v)
			}
			return day, ""
		}

	case KindBoolean:
		switch v := value.(type) {
		case BooleanValue:
			return v, ""
		case TextValue:
			switch strings.ToLower(string(v)) {
			case "true":
				return BooleanValue(true), ""
			case "false":
				return BooleanValue(false), ""
			}
		}
	}
	return nil, kindMismatch(f, value)
}

func kindMismatch(f Field, value FilterValue) string {
	return "expected " + string(f.Kind) + " value, got " + string(value.Kind())
}

type validationProblems map[string][]string

func (p *validationProblems) add(field, reason string) {
	if *p == nil {
		*p = make(validationProblems)
	}
	(*p)[field] = append((*p)[field], reason)
}

func (p validationProblems) err(entity string) error {
	if len(p) == 0 {
		return nil
	}
	return apperror.NewValidation("invalid search request").
		WithDetail("entity", entity).
		WithDetail("fields", map[string][]string(p))
}
