package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/apperror"
)

func employeeSchema() *Schema {
	return NewSchema("employee", []Field{
		{ID: "firstName", Column: "first_name", Searchable: true, Sortable: true},
		{ID: "lastName", Column: "last_name", Searchable: true, Sortable: true},
		{ID: "email", Column: "email", Searchable: true},
		{ID: "status", Column: "status", Kind: KindMultiselect, Options: []string{"ACTIVE", "ON_LEAVE", "TERMINATED"}},
		{ID: "department", Column: "department_id", Kind: KindText},
		{ID: "joiningDate", Column: "joining_date", Kind: KindDateRange, Sortable: true},
		{ID: "remote", Column: "is_remote", Kind: KindBoolean},
	})
}

func TestSchema_SearchableFields(t *testing.T) {
	assert.Equal(t, []string{"firstName", "lastName", "email"}, employeeSchema().SearchableFields())
}

func TestSchema_PrepareAcceptsValidRequest(t *testing.T) {
	req := Build([]ActiveFilter{
		NewFilter("status", MultiselectValue{"ACTIVE"}),
	}, "jane", []string{"firstName", "lastName", "email"}, &CurrentSort{Field: "lastName", Direction: Asc})

	prepared, err := employeeSchema().Prepare(req)
	require.NoError(t, err)
	assert.Equal(t, req, prepared)
}

func TestSchema_PrepareDefaultsSearchFields(t *testing.T) {
	prepared, err := employeeSchema().Prepare(Request{SearchText: " jane "})
	require.NoError(t, err)

	assert.Equal(t, "jane", prepared.SearchText)
	assert.Equal(t, []string{"firstName", "lastName", "email"}, prepared.SearchFields)
}

func TestSchema_PrepareDropsStraySearchFields(t *testing.T) {
	prepared, err := employeeSchema().Prepare(Request{SearchFields: []string{"firstName"}})
	require.NoError(t, err)
	assert.Nil(t, prepared.SearchFields)
}

func TestSchema_PrepareCoercesValues(t *testing.T) {
	req := Request{Filters: &Filters{And: Conjunction{
		"status":      TextValue("ACTIVE"),
		"joiningDate": TextValue("2024-05-01"),
		"remote":      TextValue("false"),
	}}}

	prepared, err := employeeSchema().Prepare(req)
	require.NoError(t, err)

	assert.Equal(t, Conjunction{
		"status":      MultiselectValue{"ACTIVE"},
		"joiningDate": Date(2024, time.May, 1),
		"remote":      BooleanValue(false),
	}, prepared.Filters.And)

	// the caller's request is left untouched
	assert.Equal(t, TextValue("ACTIVE"), req.Filters.And["status"])
}

func TestSchema_PrepareReportsEveryProblem(t *testing.T) {
	req := Request{
		SearchText:   "jane",
		SearchFields: []string{"salary"},
		Filters: &Filters{And: Conjunction{
			"unknown":     TextValue("x"),
			"status":      MultiselectValue{"RETIRED"},
			"remote":      MultiselectValue{"yes"},
			"joiningDate": DateRangeValue{From: Date(2024, time.June, 1), To: Date(2024, time.January, 1)},
		}},
		Sort:    map[string]SortOrder{"email": Ascending},
		IDsList: []string{"not-a-uuid"},
	}

	_, err := employeeSchema().Prepare(req)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	fields, ok := appErr.Details["fields"].(map[string][]string)
	require.True(t, ok)
	for _, key := range []string{"salary", "unknown", "status", "remote", "joiningDate", "email", "idsList"} {
		assert.Contains(t, fields, key)
	}
}

func TestSchema_PrepareRejectsLongSearchText(t *testing.T) {
	long := make([]rune, MaxSearchTextLength+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := employeeSchema().Prepare(Request{SearchText: string(long)})
	assert.Error(t, err)
}

func TestSchema_PrepareAcceptsUUIDs(t *testing.T) {
	req := ForIDs([]string{"0190c7d4-7b3a-7c62-9a55-6c3c7f3b2e10"})

	prepared, err := employeeSchema().Prepare(req)
	require.NoError(t, err)
	assert.Equal(t, req.IDsList, prepared.IDsList)
}

func TestPageRequest(t *testing.T) {
	p, err := NewPageRequest(2, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, 40, p.Offset())

	_, err = NewPageRequest(-1, 10)
	assert.Error(t, err)
	_, err = NewPageRequest(0, MaxPageSize+1)
	assert.Error(t, err)

	last, err := NewPageRequest(MaxResultWindow/MaxPageSize-1, MaxPageSize)
	require.NoError(t, err)
	assert.Equal(t, MaxResultWindow, last.Offset()+last.Limit())

	_, err = NewPageRequest(MaxResultWindow/MaxPageSize, MaxPageSize)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = NewPageRequest(92233720368547759, MaxPageSize)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestPage_TotalPages(t *testing.T) {
	assert.Equal(t, 3, Page[int]{TotalElements: 41, Size: 20}.TotalPages())
	assert.Equal(t, 0, Page[int]{TotalElements: 0, Size: 20}.TotalPages())

	mapped := MapPage(Page[int]{Content: []int{1, 2}, TotalElements: 2, Size: 20}, func(i int) string {
		return string(rune('a' + i))
	})
	assert.Equal(t, []string{"b", "c"}, mapped.Content)
}
