// Package record_repo provides PostgreSQL repositories for staffdesk records.
// The TxManager is taken from the request context.
package record_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/search"
	"staffdesk/internal/infrastructure/metrics"
	"staffdesk/internal/infrastructure/storage/postgres"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// immutableCols are never part of an UPDATE SET clause.
var immutableCols = map[string]bool{
	"id":         true,
	"version":    true,
	"created_at": true,
	"created_by": true,
}

// BaseRecordRepo provides CRUD and universal search for one table.
// Embed it in the per-record repositories.
type BaseRecordRepo[T entity.Record] struct {
	tableName  string
	selectCols []string
	newFn      func() T
	criteria   Criteria
	schema     *search.Schema
}

// NewBaseRecordRepo creates a repository over tableName.
// selectCols usually comes from postgres.ExtractDBColumns.
func NewBaseRecordRepo[T entity.Record](
	tableName string,
	selectCols []string,
	schema *search.Schema,
	newFn func() T,
) *BaseRecordRepo[T] {
	return &BaseRecordRepo[T]{
		tableName:  tableName,
		selectCols: selectCols,
		newFn:      newFn,
		criteria:   NewCriteria(schema),
		schema:     schema,
	}
}

func (r *BaseRecordRepo[T]) querier(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromContext(ctx)
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRecordRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// TableName returns the table the repository works on.
func (r *BaseRecordRepo[T]) TableName() string {
	return r.tableName
}

func (r *BaseRecordRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

func (r *BaseRecordRepo[T]) columnData(record T) (map[string]any, error) {
	data := postgres.StructToMap(record)
	if len(data) == 0 {
		return nil, fmt.Errorf("no db tags found in %T", record)
	}
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered, nil
}

// mapWriteErr turns constraint violations into app errors.
func (r *BaseRecordRepo[T]) mapWriteErr(err error, recordID id.ID) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewConflict("record violates a uniqueness rule").
			WithDetail("entity", r.tableName).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict("record is referenced by other records or references a missing one").
			WithDetail("entity", r.tableName).
			WithDetail("id", recordID.String()).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}

// Create inserts a new record using its "db" tags.
func (r *BaseRecordRepo[T]) Create(ctx context.Context, record T) error {
	data, err := r.columnData(record)
	if err != nil {
		return err
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if mapped := r.mapWriteErr(err, record.GetID()); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// Update modifies an existing record with optimistic locking and
// stores the new version on record.
func (r *BaseRecordRepo[T]) Update(ctx context.Context, record T) error {
	data, err := r.columnData(record)
	if err != nil {
		return err
	}
	for col := range immutableCols {
		delete(data, col)
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": record.GetID()}).
		Where(squirrel.Eq{"version": record.GetVersion()}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var version int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification(r.tableName, record.GetID().String())
	}
	if err != nil {
		if mapped := r.mapWriteErr(err, record.GetID()); mapped != err {
			return mapped
		}
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	record.SetVersion(version)
	return nil
}

// GetByID retrieves a record by ID.
func (r *BaseRecordRepo[T]) GetByID(ctx context.Context, recordID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": recordID}).Limit(1))
}

// GetMany retrieves records by ID in the order of ids.
func (r *BaseRecordRepo[T]) GetMany(ctx context.Context, ids []id.ID) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.baseSelect().Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get many %s: %w", r.tableName, err)
	}
	return orderByIDs(rows, ids), nil
}

func orderByIDs[T entity.Record](rows []T, ids []id.ID) []T {
	byID := make(map[id.ID]T, len(rows))
	for _, row := range rows {
		byID[row.GetID()] = row
	}
	out := make([]T, 0, len(rows))
	for _, recordID := range ids {
		if row, ok := byID[recordID]; ok {
			out = append(out, row)
		}
	}
	return out
}

// FindOne executes a SELECT query and returns a single record.
func (r *BaseRecordRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder) (T, error) {
	record := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return record, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return record, apperror.NewNotFound(r.tableName, "matching query")
		}
		return record, fmt.Errorf("find one %s: %w", r.tableName, err)
	}
	return record, nil
}

// ExistsWhere reports whether any row matches pred.
func (r *BaseRecordRepo[T]) ExistsWhere(ctx context.Context, pred squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return true, nil
}

// Exists checks if a record exists.
func (r *BaseRecordRepo[T]) Exists(ctx context.Context, recordID id.ID) (bool, error) {
	return r.ExistsWhere(ctx, squirrel.Eq{"id": recordID})
}

// Delete performs physical removal.
func (r *BaseRecordRepo[T]) Delete(ctx context.Context, recordID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if mapped := r.mapWriteErr(err, recordID); mapped != err {
			return mapped
		}
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, recordID.String())
	}
	return nil
}

func (r *BaseRecordRepo[T]) deletionMarkUpdate(marked bool) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC())
}

// SetDeletionMark sets or clears the deletion mark (soft delete).
func (r *BaseRecordRepo[T]) SetDeletionMark(ctx context.Context, recordID id.ID, marked bool) error {
	sql, args, err := r.deletionMarkUpdate(marked).
		Where(squirrel.Eq{"id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, recordID.String())
	}
	return nil
}

// BulkSetDeletionMark sets the mark on every row matching req.
func (r *BaseRecordRepo[T]) BulkSetDeletionMark(ctx context.Context, req search.Request, marked bool) (int64, error) {
	sql, args, err := r.bulkDeletionMarkSQL(req, marked)
	if err != nil {
		return 0, err
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk deletion mark %s: %w", r.tableName, err)
	}
	metrics.BulkAffected.WithLabelValues(r.schema.Entity(), "deletion_mark").Add(float64(result.RowsAffected()))
	return result.RowsAffected(), nil
}

func (r *BaseRecordRepo[T]) bulkDeletionMarkSQL(req search.Request, marked bool) (string, []any, error) {
	if req.IsEmpty() {
		return "", nil, apperror.NewValidation("bulk operation requires search criteria or idsList")
	}
	where, err := r.criteria.Where(req)
	if err != nil {
		return "", nil, apperror.NewValidation(err.Error())
	}
	sql, args, err := r.deletionMarkUpdate(marked).
		Where(where).
		Where(squirrel.NotEq{"deletion_mark": marked}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build bulk deletion mark: %w", err)
	}
	return sql, args, nil
}

// searchSelect applies the restrictions of query without paging.
func (r *BaseRecordRepo[T]) searchSelect(req search.Request, includeDeleted bool) (squirrel.SelectBuilder, error) {
	q := r.baseSelect()
	if !includeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	where, err := r.criteria.Where(req)
	if err != nil {
		return q, apperror.NewValidation(err.Error())
	}
	if len(where) > 0 {
		q = q.Where(where)
	}
	return q, nil
}

// Search runs a prepared universal search request.
func (r *BaseRecordRepo[T]) Search(ctx context.Context, query domain.SearchQuery) (page search.Page[T], err error) {
	ctx, span := tracer.Start(ctx, "record_repo.search", trace.WithAttributes(
		attribute.String("db.table", r.tableName),
		attribute.Int("search.page", query.Page.Page),
		attribute.Int("search.size", query.Page.Size),
	))
	defer span.End()
	defer func(start time.Time) {
		metrics.ObserveSearch(r.schema.Entity(), metrics.BackendPostgres, start, err)
	}(time.Now())

	if query.Page.Size <= 0 {
		query.Page.Size = search.DefaultPageSize
	}
	page = search.Page[T]{Content: []T{}, Page: query.Page.Page, Size: query.Page.Size}

	q, err := r.searchSelect(query.Request, query.IncludeDeleted)
	if err != nil {
		return page, err
	}

	total, err := r.count(ctx, q)
	if err != nil {
		span.RecordError(err)
		return page, err
	}
	page.TotalElements = total
	span.SetAttributes(attribute.Int64("search.total", total))

	if total == 0 || int64(query.Page.Offset()) >= total {
		return page, nil
	}

	order, err := r.criteria.OrderBy(query.Request)
	if err != nil {
		return page, apperror.NewValidation(err.Error())
	}
	q = q.OrderBy(order...).
		Limit(uint64(query.Page.Limit())).
		Offset(uint64(query.Page.Offset()))

	if err := r.selectInto(ctx, &page.Content, q); err != nil {
		span.RecordError(err)
		return page, err
	}
	return page, nil
}

// SearchAll returns up to limit rows matching req in request order.
func (r *BaseRecordRepo[T]) SearchAll(ctx context.Context, req search.Request, limit int) ([]T, error) {
	q, err := r.searchSelect(req, false)
	if err != nil {
		return nil, err
	}
	order, err := r.criteria.OrderBy(req)
	if err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	q = q.OrderBy(order...)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	var rows []T
	if err := r.selectInto(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BaseRecordRepo[T]) count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tableName, err)
	}
	return total, nil
}

func (r *BaseRecordRepo[T]) selectInto(ctx context.Context, dst *[]T, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), dst, sql, args...); err != nil {
		return fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return nil
}

// List retrieves records with a plain list filter.
func (r *BaseRecordRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Items: []T{}, Limit: filter.Limit, Offset: filter.Offset}

	q, err := r.listSelect(filter)
	if err != nil {
		return result, err
	}

	if result.TotalCount, err = r.count(ctx, q); err != nil {
		return result, err
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	if err := r.selectInto(ctx, &result.Items, q); err != nil {
		return result, err
	}
	return result, nil
}

func (r *BaseRecordRepo[T]) listSelect(filter domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := r.baseSelect()
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if text := strings.TrimSpace(filter.Search); text != "" {
		var req search.Request
		if r.schema != nil {
			req = search.Request{SearchText: text, SearchFields: r.schema.SearchableFields()}
		}
		where, err := r.criteria.Where(req)
		if err != nil {
			return q, err
		}
		if len(where) > 0 {
			q = q.Where(where)
		}
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	return q, nil
}

func (r *BaseRecordRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}
