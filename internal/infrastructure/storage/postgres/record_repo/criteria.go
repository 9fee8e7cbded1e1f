package record_repo

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/search"
)

// likeEscaper escapes LIKE wildcards; backslash is the default ESCAPE character in Postgres.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

// Criteria translates prepared search requests into SQL for one table.
// Field ids are resolved to columns through the schema, so only declared
// columns ever reach the SQL text.
type Criteria struct {
	schema *search.Schema
}

// NewCriteria creates a translator over schema.
func NewCriteria(schema *search.Schema) Criteria {
	return Criteria{schema: schema}
}

func (c Criteria) field(fieldID string) (search.Field, error) {
	f, ok := c.schema.Field(fieldID)
	if !ok {
		return search.Field{}, fmt.Errorf("unknown search field %q for %s", fieldID, c.schema.Entity())
	}
	return f, nil
}

// Where returns the conjunction of all restrictions in req.
// An empty request yields an empty conjunction.
func (c Criteria) Where(req search.Request) (squirrel.And, error) {
	var where squirrel.And

	if req.SearchText != "" {
		pattern := containsPattern(req.SearchText)
		anyOf := make(squirrel.Or, 0, len(req.SearchFields))
		for _, fid := range req.SearchFields {
			f, err := c.field(fid)
			if err != nil {
				return nil, err
			}
			anyOf = append(anyOf, squirrel.ILike{f.Column: pattern})
		}
		if len(anyOf) > 0 {
			where = append(where, anyOf)
		}
	}

	conditions := req.Conditions()
	for _, fid := range conditions.Fields() {
		f, err := c.field(fid)
		if err != nil {
			return nil, err
		}
		pred, err := predicate(f, conditions[fid])
		if err != nil {
			return nil, err
		}
		where = append(where, pred...)
	}

	if len(req.IDsList) > 0 {
		ids, err := id.ParseAll(req.IDsList)
		if err != nil {
			return nil, fmt.Errorf("ids list: %w", err)
		}
		where = append(where, squirrel.Eq{"id": ids})
	}

	return where, nil
}

func predicate(f search.Field, value search.FilterValue) ([]squirrel.Sqlizer, error) {
	col := f.Column
	switch v := value.(type) {
	case search.TextValue:
		if f.Partial {
			return []squirrel.Sqlizer{squirrel.ILike{col: containsPattern(string(v))}}, nil
		}
		return []squirrel.Sqlizer{squirrel.Eq{col: string(v)}}, nil
	case search.MultiselectValue:
		return []squirrel.Sqlizer{squirrel.Eq{col: v.Values()}}, nil
	case search.BooleanValue:
		return []squirrel.Sqlizer{squirrel.Eq{col: bool(v)}}, nil
	case search.DateValue:
		return []squirrel.Sqlizer{squirrel.Expr(col+"::date = ?::date", v.String())}, nil
	case search.DateRangeValue:
		var preds []squirrel.Sqlizer
		if !v.From.IsEmpty() {
			preds = append(preds, squirrel.Expr(col+"::date >= ?::date", v.From.String()))
		}
		if !v.To.IsEmpty() {
			preds = append(preds, squirrel.Expr(col+"::date <= ?::date", v.To.String()))
		}
		return preds, nil
	}
	return nil, fmt.Errorf("unsupported filter value %T for %s", value, f.ID)
}

// OrderBy returns the ORDER BY terms for req. The id term keeps paging stable.
func (c Criteria) OrderBy(req search.Request) ([]string, error) {
	field, order, ok := req.SortKey()
	if !ok {
		return []string{"created_at DESC", "id ASC"}, nil
	}
	f, err := c.field(field)
	if err != nil {
		return nil, err
	}
	dir := "ASC"
	if order == search.Descending {
		dir = "DESC"
	}
	return []string{f.Column + " " + dir, "id ASC"}, nil
}
