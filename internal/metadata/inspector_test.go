package metadata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/search"
)

type sampleEmployee struct {
	entity.BaseEntity
	FirstName    string          `db:"first_name" json:"firstName" binding:"required" search:"searchable,sortable"`
	JobTitle     string          `db:"job_title" json:"jobTitle" search:"searchable,filter=text,partial"`
	Status       string          `db:"status" json:"status" search:"filter=multiselect,options=ACTIVE|ON_LEAVE"`
	DepartmentID *id.ID          `db:"department_id" json:"departmentId,omitempty" search:"filter=multiselect"`
	HostID       id.ID           `db:"host_id" json:"hostId" ref:"employee"`
	JoiningDate  time.Time       `db:"joining_date" json:"joiningDate" label:"Start date" search:"filter=date_range,sortable"`
	Remote       bool            `db:"is_remote" json:"remote" search:"filter=boolean"`
	Salary       decimal.Decimal `db:"salary" json:"salary"`
	Internal     string          `db:"-" json:"-"`
}

func TestInspect_ReadsTagsAndTypes(t *testing.T) {
	def := Inspect(&sampleEmployee{}, "employee", TypeDirectory)

	assert.Equal(t, "employee", def.Name)
	assert.Equal(t, TypeDirectory, def.Type)

	_, hidden := def.Field("internal")
	assert.False(t, hidden)

	idField, ok := def.Field("id")
	require.True(t, ok)
	assert.True(t, idField.ReadOnly)
	assert.Equal(t, TypeReference, idField.Type)

	first, _ := def.Field("firstName")
	assert.Equal(t, "First name", first.Label)
	assert.Equal(t, "first_name", first.Column)
	assert.True(t, first.Required)
	assert.True(t, first.Searchable)
	assert.True(t, first.Sortable)
	assert.Equal(t, TypeString, first.Type)

	title, _ := def.Field("jobTitle")
	assert.Equal(t, search.KindText, title.Filter)
	assert.True(t, title.Partial)

	status, _ := def.Field("status")
	assert.Equal(t, TypeEnum, status.Type)
	assert.Equal(t, []string{"ACTIVE", "ON_LEAVE"}, status.Options)

	dept, _ := def.Field("departmentId")
	assert.Equal(t, TypeReference, dept.Type)
	assert.Equal(t, "department", dept.ReferenceType)
	assert.Equal(t, "Department ID", dept.Label)

	host, _ := def.Field("hostId")
	assert.Equal(t, "employee", host.ReferenceType)

	joined, _ := def.Field("joiningDate")
	assert.Equal(t, TypeDate, joined.Type)
	assert.Equal(t, "Start date", joined.Label)

	created, _ := def.Field("createdAt")
	assert.Equal(t, TypeDateTime, created.Type)

	salary, _ := def.Field("salary")
	assert.Equal(t, TypeMoney, salary.Type)
	assert.Equal(t, 2, salary.Scale)
}

func TestInspect_DefaultName(t *testing.T) {
	def := Inspect(sampleEmployee{}, "", TypeJournal)
	assert.Equal(t, "sampleEmployee", def.Name)
	assert.Equal(t, "sample employee", def.Label)
}

func TestEntityDef_Schema(t *testing.T) {
	schema := Inspect(&sampleEmployee{}, "employee", TypeDirectory).Schema()

	assert.Equal(t, "employee", schema.Entity())
	assert.Equal(t, []string{"firstName", "jobTitle"}, schema.SearchableFields())

	_, ok := schema.Field("salary")
	assert.False(t, ok, "fields without search capabilities stay out of the schema")

	joined, ok := schema.Field("joiningDate")
	require.True(t, ok)
	assert.Equal(t, "joining_date", joined.Column)
	assert.Equal(t, search.KindDateRange, joined.Kind)
	assert.True(t, joined.Sortable)

	_, err := schema.Prepare(search.Request{
		Filters: &search.Filters{And: search.Conjunction{"status": search.MultiselectValue{"RETIRED"}}},
	})
	assert.Error(t, err)
}

func TestGuessLabel(t *testing.T) {
	tests := map[string]string{
		"JoiningDate":  "Joining date",
		"DepartmentID": "Department ID",
		"ID":           "ID",
		"HTTPServer":   "HTTP server",
		"Email":        "Email",
	}
	for in, want := range tests {
		assert.Equal(t, want, guessLabel(in), in)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(EntityDef{Name: "visitor"})
	r.Register(EntityDef{Name: "employee"})
	r.Register(EntityDef{Name: "department"})

	var names []string
	for _, d := range r.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"department", "employee", "visitor"}, names)

	_, ok := r.Get("employee")
	assert.True(t, ok)
}
