package record_repo

import (
	"slices"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/search"
)

func TestRecordRepos_SchemaColumnsAreSelected(t *testing.T) {
	repos := map[string]struct {
		cols   []string
		schema *search.Schema
	}{
		"departments": {NewDepartmentRepo().selectCols, NewDepartmentRepo().schema},
		"employees":   {NewEmployeeRepo().selectCols, NewEmployeeRepo().schema},
		"visitors":    {NewVisitorRepo().selectCols, NewVisitorRepo().schema},
	}

	for table, repo := range repos {
		t.Run(table, func(t *testing.T) {
			require.NotEmpty(t, repo.schema.Fields())
			for _, f := range repo.schema.Fields() {
				assert.True(t, slices.Contains(repo.cols, f.Column), "%s.%s", table, f.Column)
			}
		})
	}
}

func TestEmployeeRepo_SearchSQL(t *testing.T) {
	repo := NewEmployeeRepo()
	req := search.Build([]search.ActiveFilter{
		search.NewFilter("status", search.MultiselectValue{"ACTIVE"}),
		search.NewFilter("jobTitle", search.TextValue("engineer")),
	}, "jane", []string{"firstName", "email"}, &search.CurrentSort{Field: "lastName", Direction: search.Desc})

	q, err := repo.searchSelect(req, false)
	require.NoError(t, err)
	order, err := repo.criteria.OrderBy(req)
	require.NoError(t, err)

	sql, args, err := q.OrderBy(order...).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM employees WHERE deletion_mark = $1 AND "+
		"((first_name ILIKE $2 OR email ILIKE $3) AND job_title ILIKE $4 AND status IN ($5)) "+
		"ORDER BY last_name DESC, id ASC")
	assert.Equal(t, []any{false, "%jane%", "%jane%", "%engineer%", "ACTIVE"}, args)
}

func TestEmployeeRepo_EmailTakenPredicate(t *testing.T) {
	exclude := id.New()

	sql, args, err := squirrel.Select("1").From("employees").
		Where(emailTakenPred("Jane@Example.com", exclude)).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT 1 FROM employees WHERE (lower(email) = lower($1) AND id <> $2)", sql)
	assert.Equal(t, []any{"Jane@Example.com", exclude.String()}, args)
}
