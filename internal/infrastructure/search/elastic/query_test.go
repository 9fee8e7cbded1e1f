package elastic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/domain"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/search"
)

func queryJSON(t *testing.T, query domain.SearchQuery) string {
	t.Helper()
	body, err := BuildQuery(employee.Definition(), query)
	require.NoError(t, err)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return string(raw)
}

func TestBuildQuery_TextAndFilters(t *testing.T) {
	req := search.Build([]search.ActiveFilter{
		search.NewFilter("status", search.MultiselectValue{"ACTIVE", "ON_LEAVE"}),
		search.NewFilter("remote", search.BooleanValue(true)),
		search.NewFilter("jobTitle", search.TextValue("eng*")),
		search.NewFilter("joiningDate", search.DateRangeValue{From: search.Date(2024, time.January, 1), To: search.Date(2024, time.March, 31)}),
	}, "jane", []string{"firstName", "email"}, nil)

	got := queryJSON(t, domain.SearchQuery{Request: req, Page: search.PageRequest{Page: 2, Size: 10}})

	assert.JSONEq(t, `{
		"query": {"bool": {
			"must": [{"bool": {"minimum_should_match": 1, "should": [
				{"wildcard": {"firstName.keyword": {"value": "*jane*", "case_insensitive": true}}},
				{"wildcard": {"email.keyword": {"value": "*jane*", "case_insensitive": true}}}
			]}}],
			"filter": [
				{"wildcard": {"jobTitle.keyword": {"value": "*eng\\**", "case_insensitive": true}}},
				{"range": {"joiningDate": {"format": "yyyy-MM-dd", "gte": "2024-01-01", "lt": "2024-04-01"}}},
				{"term": {"remote": true}},
				{"terms": {"status.keyword": ["ACTIVE", "ON_LEAVE"]}},
				{"term": {"deletionMark": false}}
			]
		}},
		"from": 20,
		"size": 10,
		"track_total_hits": true,
		"_source": false,
		"sort": ["_score", {"createdAt": {"order": "desc"}}, {"id.keyword": {"order": "asc"}}]
	}`, got)
}

func TestBuildQuery_SortIDsAndDeleted(t *testing.T) {
	req := search.ForIDs([]string{"0190c7d4-7b3a-7c62-9a55-6c3c7f3b2e10"})
	req.Sort = map[string]search.SortOrder{"lastName": search.Descending}

	got := queryJSON(t, domain.SearchQuery{Request: req, IncludeDeleted: true})

	assert.JSONEq(t, `{
		"query": {"bool": {"filter": [{"ids": {"values": ["0190c7d4-7b3a-7c62-9a55-6c3c7f3b2e10"]}}]}},
		"from": 0,
		"size": 20,
		"track_total_hits": true,
		"_source": false,
		"sort": [{"lastName.keyword": {"order": "desc"}}, {"id.keyword": {"order": "asc"}}]
	}`, got)
}

func TestBuildQuery_SingleDayAndExactText(t *testing.T) {
	req := search.Build([]search.ActiveFilter{
		search.NewFilter("managerId", search.TextValue("0190c7d4-7b3a-7c62-9a55-6c3c7f3b2e10")),
		search.NewFilter("leavingDate", search.Date(2025, time.December, 31)),
	}, "", nil, nil)

	got := queryJSON(t, domain.SearchQuery{Request: req})

	assert.Contains(t, got, `{"term":{"managerId.keyword":"0190c7d4-7b3a-7c62-9a55-6c3c7f3b2e10"}}`)
	assert.Contains(t, got, `{"range":{"leavingDate":{"format":"yyyy-MM-dd","gte":"2025-12-31","lt":"2026-01-01"}}}`)
}

func TestBuildQuery_UnknownField(t *testing.T) {
	req := search.Build([]search.ActiveFilter{search.NewFilter("shoeSize", search.TextValue("42"))}, "", nil, nil)

	_, err := BuildQuery(employee.Definition(), domain.SearchQuery{Request: req})
	assert.Error(t, err)
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "staffdesk-employee", IndexName("", "employee"))
	assert.Equal(t, "hr-visitor", IndexName("hr", "visitor"))
}

func TestBuildQuery_SearchTextMatchesSubstrings(t *testing.T) {
	req := search.Build(nil, "ane*", []string{"firstName"}, nil)

	got := queryJSON(t, domain.SearchQuery{Request: req, Page: search.PageRequest{Size: 20}})

	var body struct {
		Query struct {
			Bool struct {
				Must []map[string]any `json:"must"`
			} `json:"bool"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &body))
	require.Len(t, body.Query.Bool.Must, 1)

	raw, err := json.Marshal(body.Query.Bool.Must[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool": {"minimum_should_match": 1, "should": [
		{"wildcard": {"firstName.keyword": {"value": "*ane\\**", "case_insensitive": true}}}
	]}}`, string(raw))
	assert.NotContains(t, got, "multi_match")
}
