// Package reindex rebuilds the full-text index from the database.
package reindex

import (
	"context"
	"fmt"

	"staffdesk/internal/core/entity"
	"staffdesk/internal/domain"
	"staffdesk/pkg/logger"
)

// DefaultBatchSize is used when a job is created with a non-positive batch.
const DefaultBatchSize = 500

// Lister is the read side of a record repository.
type Lister[T entity.Record] interface {
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// Job pushes every record of one entity to the index.
type Job struct {
	Entity string
	run    func(ctx context.Context) (int, error)
}

// Run executes the job and returns the number of indexed records.
func (j Job) Run(ctx context.Context) (int, error) {
	return j.run(ctx)
}

// NewJob creates a job for the records of src.
// Records with a deletion mark are indexed too; searches filter them.
func NewJob[T entity.Record](entityName string, src Lister[T], idx domain.Indexer, batch int) Job {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return Job{
		Entity: entityName,
		run: func(ctx context.Context) (int, error) {
			return indexAll(ctx, entityName, src, idx, batch)
		},
	}
}

func indexAll[T entity.Record](ctx context.Context, entityName string, src Lister[T], idx domain.Indexer, batch int) (int, error) {
	indexed, failed := 0, 0
	for offset := 0; ; {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		page, err := src.List(ctx, domain.ListFilter{
			IncludeDeleted: true,
			OrderBy:        "id",
			Limit:          batch,
			Offset:         offset,
		})
		if err != nil {
			return indexed, fmt.Errorf("list %s at offset %d: %w", entityName, offset, err)
		}

		for _, record := range page.Items {
			if err := idx.Index(ctx, entityName, record.GetID(), record); err != nil {
				failed++
				logger.Warn(ctx, "reindex record failed",
					"entity", entityName, "id", record.GetID().String(), "error", err)
				continue
			}
			indexed++
		}

		offset += len(page.Items)
		if len(page.Items) < batch || int64(offset) >= page.TotalCount {
			break
		}
	}

	if failed > 0 {
		return indexed, fmt.Errorf("reindex %s: %d records failed", entityName, failed)
	}
	return indexed, nil
}

// RunAll runs jobs one after another and keeps going past failures.
// It returns the first error seen.
func RunAll(ctx context.Context, jobs []Job) error {
	var first error
	for _, job := range jobs {
		n, err := job.Run(ctx)
		if err != nil {
			logger.Error(ctx, "reindex failed", "entity", job.Entity, "indexed", n, "error", err)
			if first == nil {
				first = err
			}
			continue
		}
		logger.Info(ctx, "reindex finished", "entity", job.Entity, "indexed", n)
	}
	return first
}
