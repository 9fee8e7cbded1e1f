// Package elastic answers universal search requests from Elasticsearch and
// keeps the record indexes up to date.
package elastic

import (
	"fmt"

	"staffdesk/internal/domain"
	"staffdesk/internal/domain/search"
	"staffdesk/internal/metadata"
)

// Query is an Elasticsearch search body.
type Query map[string]any

// BuildQuery translates a prepared search query into a search body.
// Documents are the JSON form of the records, so field ids are document fields.
func BuildQuery(def metadata.EntityDef, query domain.SearchQuery) (Query, error) {
	req := query.Request
	var must, filter []any

	if req.SearchText != "" && len(req.SearchFields) > 0 {
		must = append(must, textClause(def, req.SearchText, req.SearchFields))
	}

	if req.Filters != nil {
		for _, fieldID := range req.Filters.And.Fields() {
			clause, err := filterClause(def, fieldID, req.Filters.And[fieldID])
			if err != nil {
				return nil, err
			}
			filter = append(filter, clause)
		}
	}

	if len(req.IDsList) > 0 {
		filter = append(filter, map[string]any{
			"ids": map[string]any{"values": req.IDsList},
		})
	}

	if !query.IncludeDeleted {
		filter = append(filter, map[string]any{
			"term": map[string]any{"deletionMark": false},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	size := query.Page.Size
	if size <= 0 {
		size = search.DefaultPageSize
	}

	body := Query{
		"query":            map[string]any{"bool": boolQuery},
		"from":             query.Page.Page * size,
		"size":             size,
		"track_total_hits": true,
		"_source":          false,
		"sort":             sortClause(def, req),
	}
	return body, nil
}

func filterClause(def metadata.EntityDef, fieldID string, value search.FilterValue) (map[string]any, error) {
	f, ok := def.Field(fieldID)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", fieldID)
	}
	name := docField(f)

	switch v := value.(type) {
	case search.TextValue:
		if f.Partial {
			return containsClause(name, "*"+escapeWildcard(string(v))+"*"), nil
		}
		return map[string]any{"term": map[string]any{name: string(v)}}, nil

	case search.MultiselectValue:
		return map[string]any{"terms": map[string]any{name: v.Values()}}, nil

	case search.BooleanValue:
		return map[string]any{"term": map[string]any{name: bool(v)}}, nil

	case search.DateValue:
		return dayRange(f.Name, v, v), nil

	case search.DateRangeValue:
		return dayRange(f.Name, v.From, v.To), nil
	}
	return nil, fmt.Errorf("unsupported filter value %T for %q", value, fieldID)
}

// textClause matches text as a case-insensitive substring of any of fields,
// the same way the database search does.
func textClause(def metadata.EntityDef, text string, fields []string) map[string]any {
	pattern := "*" + escapeWildcard(text) + "*"
	should := make([]any, 0, len(fields))
	for _, fieldID := range fields {
		name := fieldID + ".keyword"
		if f, ok := def.Field(fieldID); ok {
			name = docField(f)
		}
		should = append(should, containsClause(name, pattern))
	}
	return map[string]any{
		"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

func containsClause(name, pattern string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			name: map[string]any{
				"value":            pattern,
				"case_insensitive": true,
			},
		},
	}
}

// dayRange matches whole days from..to. Either bound may be empty.
func dayRange(field string, from, to search.DateValue) map[string]any {
	bounds := map[string]any{"format": "yyyy-MM-dd"}
	if !from.IsEmpty() {
		bounds["gte"] = from.String()
	}
	if !to.IsEmpty() {
		bounds["lt"] = search.DateOf(to.Time().AddDate(0, 0, 1)).String()
	}
	return map[string]any{"range": map[string]any{field: bounds}}
}

func sortClause(def metadata.EntityDef, req search.Request) []any {
	if fieldID, order, ok := req.SortKey(); ok {
		name := fieldID
		if f, found := def.Field(fieldID); found {
			name = docField(f)
		}
		dir := "asc"
		if order == search.Descending {
			dir = "desc"
		}
		return []any{
			map[string]any{name: map[string]any{"order": dir}},
			map[string]any{"id.keyword": map[string]any{"order": "asc"}},
		}
	}
	return []any{
		"_score",
		map[string]any{"createdAt": map[string]any{"order": "desc"}},
		map[string]any{"id.keyword": map[string]any{"order": "asc"}},
	}
}

// docField returns the document field used for exact matches and sorting.
// Strings are indexed as text with a keyword sub-field.
func docField(f metadata.FieldDef) string {
	switch f.Type {
	case metadata.TypeString, metadata.TypeEnum, metadata.TypeReference:
		return f.Name + ".keyword"
	}
	return f.Name
}

func escapeWildcard(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '*' || r == '?' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
