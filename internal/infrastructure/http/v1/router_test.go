package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "staffdesk/internal/core/context"
	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/auth"
	"staffdesk/internal/domain/domaintest"
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/search"
	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/infrastructure/export"
	"staffdesk/internal/metadata"
	"staffdesk/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type departmentRepo struct {
	*domaintest.Repo[*department.Department]
}

func (departmentRepo) CodeTaken(context.Context, string, id.ID) (bool, error) { return false, nil }
func (departmentRepo) HasChildren(context.Context, id.ID) (bool, error)       { return false, nil }

type employeeRepo struct {
	*domaintest.Repo[*employee.Employee]
}

func (employeeRepo) EmailTaken(context.Context, string, id.ID) (bool, error) { return false, nil }

type memPrefs map[string]json.RawMessage

func (m memPrefs) Get(_ context.Context, userID, key string) (json.RawMessage, bool, error) {
	v, ok := m[userID+"/"+key]
	return v, ok, nil
}

func (m memPrefs) Set(_ context.Context, userID, key string, value json.RawMessage) error {
	m[userID+"/"+key] = value
	return nil
}

type testAPI struct {
	handler   http.Handler
	tokens    *auth.Tokens
	employees *domaintest.Repo[*employee.Employee]
	audit     *domaintest.Audit
	prefs     memPrefs
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	tokens := auth.NewTokens(auth.NewTokenConfig("router-test-secret-that-is-long-enough", ""))
	employees := domaintest.NewRepo[*employee.Employee]()
	audit := &domaintest.Audit{}
	prefs := memPrefs{}

	registry := metadata.NewRegistry()
	registry.Register(department.Definition())
	registry.Register(employee.Definition())
	registry.Register(visitor.Definition())

	h := NewRouter(RouterConfig{
		Logger:       logger.Default(),
		TxManager:    &domaintest.Tx{},
		Tokens:       tokens,
		Numerator:    domaintest.Sequence(),
		Repositories: Repositories{
			Departments: departmentRepo{domaintest.NewRepo[*department.Department]()},
			Employees:   employeeRepo{employees},
			Visitors:    domaintest.NewRepo[*visitor.Visitor](),
		},
		Audit:            audit,
		Preferences:      prefs,
		MetadataRegistry: registry,
		Version:          "test",
	})
	return &testAPI{handler: h, tokens: tokens, employees: employees, audit: audit, prefs: prefs}
}

func (a *testAPI) token(t *testing.T, user appctx.UserContext) string {
	t.Helper()
	token, _, err := a.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

func (a *testAPI) call(t *testing.T, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var admin = appctx.UserContext{UserID: "admin", IsAdmin: true}

func testDay() time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	api := newTestAPI(t)

	rec := api.call(t, "", http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.call(t, "", http.MethodGet, "/api/v1/employees", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_HireAndSearchEmployees(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, admin)

	rec := api.call(t, token, http.MethodPost, "/api/v1/employees",
		`{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","joiningDate":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.NotEmpty(t, created["employeeNumber"])
	assert.Equal(t, "ACTIVE", created["status"])

	rec = api.call(t, token, http.MethodPost, "/api/v1/employees/search?page=0&size=10",
		`{"searchText":"  jane ","filters":{"and":{"status":["ACTIVE"]}},"sort":{"lastName":1}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	page := decode(t, rec)
	assert.EqualValues(t, 1, page["totalElements"])
	assert.EqualValues(t, 10, page["size"])

	prepared := api.employees.LastQuery.Request
	assert.Equal(t, "jane", prepared.SearchText)
	assert.Equal(t, employee.Definition().Schema().SearchableFields(), prepared.SearchFields)
	assert.Equal(t, search.MultiselectValue{"ACTIVE"}, prepared.Filters.And["status"])
	assert.Equal(t, map[string]search.SortOrder{"lastName": search.Ascending}, prepared.Sort)
}

func TestRouter_SearchRejectsInvalidRequests(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, admin)

	rec := api.call(t, token, http.MethodPost, "/api/v1/employees/search",
		`{"filters":{"and":{"salary":"1000"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.call(t, token, http.MethodPost, "/api/v1/employees/search?size=1000", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.call(t, token, http.MethodPost, "/api/v1/employees/search?page=abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PermissionsApply(t *testing.T) {
	api := newTestAPI(t)
	reader := api.token(t, appctx.UserContext{UserID: "u1", Permissions: []string{"employee:read"}})

	rec := api.call(t, reader, http.MethodPost, "/api/v1/employees/search", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.call(t, reader, http.MethodPost, "/api/v1/employees/deletion-mark", `{"request":{},"marked":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_BulkDeletionMarkNeedsCriteria(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, admin)

	rec := api.call(t, token, http.MethodPost, "/api/v1/employees/deletion-mark", `{"request":{},"marked":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	e := employee.NewEmployee("Jane", "Doe", "jane@example.com", testDay())
	require.NoError(t, api.employees.Create(context.Background(), e))

	body := `{"request":{"idsList":["` + e.ID.String() + `"]},"marked":true}`
	rec = api.call(t, token, http.MethodPost, "/api/v1/employees/deletion-mark", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["affected"])
}

func TestRouter_ExportReturnsWorkbook(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, admin)

	rec := api.call(t, token, http.MethodPost, "/api/v1/departments", `{"name":"Engineering"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.call(t, token, http.MethodPost, "/api/v1/departments/export", `{"searchText":"eng"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "department-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestRouter_VisitorLifecycleAndHistory(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, admin)

	host := employee.NewEmployee("Jane", "Doe", "jane@example.com", testDay())
	require.NoError(t, api.employees.Create(context.Background(), host))

	rec := api.call(t, token, http.MethodPost, "/api/v1/visitors",
		`{"fullName":"Sam Guest","hostEmployeeId":"`+host.ID.String()+`","purpose":"MEETING","expectedOn":"2024-03-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	visit := decode(t, rec)
	visitID := visit["id"].(string)

	rec = api.call(t, token, http.MethodPost, "/api/v1/visitors/"+visitID+"/check-in", `{"version":1,"badgeNumber":"B-7"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CHECKED_IN", decode(t, rec)["status"])

	rec = api.call(t, token, http.MethodPost, "/api/v1/visitors/"+visitID+"/check-in", `{"version":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = api.call(t, token, http.MethodGet, "/api/v1/visitors/"+visitID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	assert.Len(t, items, 2)
}

func TestRouter_Preferences(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, appctx.UserContext{UserID: "u1"})

	rec := api.call(t, token, http.MethodGet, "/api/v1/preferences/view.employee", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["found"])

	view := `{"filters":[{"filterId":"status","value":["ACTIVE"]},{"filterId":"jobTitle","value":""}],"searchText":" dev ","sort":{"field":"lastName","direction":"desc"}}`
	rec = api.call(t, token, http.MethodPut, "/api/v1/preferences/view.employee", view)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = api.call(t, token, http.MethodGet, "/api/v1/preferences/views/employee", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	req := decode(t, rec)["request"].(map[string]any)
	assert.Equal(t, "dev", req["searchText"])
	assert.Equal(t, map[string]any{"and": map[string]any{"status": []any{"ACTIVE"}}}, req["filters"])
	assert.Equal(t, map[string]any{"lastName": float64(-1)}, req["sort"])

	rec = api.call(t, token, http.MethodPut, "/api/v1/preferences/bad%20key", `1`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Metadata(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, admin)

	rec := api.call(t, token, http.MethodGet, "/api/v1/meta/visitor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["searchableFields"], "fullName")

	rec = api.call(t, token, http.MethodGet, "/api/v1/meta/payroll", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
