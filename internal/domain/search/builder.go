package search

import "strings"

// Build turns the filter bar state into a Request.
//
// Filters with empty values are dropped, and for a repeated filter id the
// last non-empty value wins. The search text is trimmed; searchText and
// searchFields are set only when it is non-empty. Build never aliases its
// inputs into the result.
func Build(filters []ActiveFilter, searchText string, searchableFields []string, current *CurrentSort) Request {
	var req Request

	for _, f := range filters {
		if f.Empty() {
			continue
		}
		if req.Filters == nil {
			req.Filters = &Filters{And: make(Conjunction, len(filters))}
		}
		req.Filters.And[f.FilterID] = f.Value.clone()
	}

	if text := strings.TrimSpace(searchText); text != "" {
		req.SearchText = text
		req.SearchFields = copyStrings(searchableFields)
	}

	if current != nil && current.Field != "" {
		if order, ok := current.Direction.Order(); ok {
			req.Sort = map[string]SortOrder{current.Field: order}
		}
	}

	return req
}

// ForIDs returns a request that targets exactly ids, in the given order.
func ForIDs(ids []string) Request {
	return Request{IDsList: copyStrings(ids)}
}
