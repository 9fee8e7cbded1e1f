package domain

import (
	"context"
	"fmt"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/core/tx"
	"staffdesk/internal/domain/audit"
	"staffdesk/internal/domain/search"
	"staffdesk/pkg/logger"
)

// RecordService provides business logic shared by all record types.
type RecordService[T entity.Record] struct {
	repo       RecordRepository[T]
	txManager  tx.Manager // optional, obtained from context when nil
	schema     *search.Schema
	fullText   FullTextSearcher
	indexer    Indexer
	audit      audit.Recorder
	hooks      *HookRegistry[T]
	entityName string
}

// RecordServiceConfig configures the record service.
type RecordServiceConfig[T entity.Record] struct {
	Repo       RecordRepository[T]
	TxManager  tx.Manager
	Schema     *search.Schema
	FullText   FullTextSearcher
	Indexer    Indexer
	Audit      audit.Recorder
	EntityName string
}

// NewRecordService creates a new record service.
func NewRecordService[T entity.Record](cfg RecordServiceConfig[T]) *RecordService[T] {
	return &RecordService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		schema:     cfg.Schema,
		fullText:   cfg.FullText,
		indexer:    cfg.Indexer,
		audit:      cfg.Audit,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *RecordService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Schema returns the search schema of the record type.
func (s *RecordService[T]) Schema() *search.Schema {
	return s.schema
}

// EntityName returns the record type name used in errors and audit entries.
func (s *RecordService[T]) EntityName() string {
	return s.entityName
}

func (s *RecordService[T]) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tx.FromContext(ctx)
}

func (s *RecordService[T]) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, fn)
}

func (s *RecordService[T]) normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *RecordService[T]) normalizeGetErr(err error, recordID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, recordID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", recordID.String())
}

func (s *RecordService[T]) record(ctx context.Context, recordID id.ID, action audit.Action, changes map[string]audit.Change) error {
	if s.audit == nil {
		return nil
	}
	entry, err := audit.NewEntry(ctx, s.entityName, recordID, action, changes)
	if err != nil {
		return fmt.Errorf("build audit entry: %w", err)
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

func (s *RecordService[T]) runAfter(ctx context.Context, event HookEvent, record T) {
	if err := s.hooks.Run(ctx, event, record); err != nil {
		logger.Warn(ctx, "after hook failed",
			"entity", s.entityName, "event", string(event), "id", record.GetID().String(), "error", err)
	}
}

func (s *RecordService[T]) reindex(ctx context.Context, record T) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, s.entityName, record.GetID(), record); err != nil {
		logger.Warn(ctx, "index update failed",
			"entity", s.entityName, "id", record.GetID().String(), "error", err)
	}
}

func (s *RecordService[T]) unindex(ctx context.Context, recordID id.ID) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Remove(ctx, s.entityName, recordID); err != nil {
		logger.Warn(ctx, "index removal failed",
			"entity", s.entityName, "id", recordID.String(), "error", err)
	}
}

// Create validates and inserts a record.
func (s *RecordService[T]) Create(ctx context.Context, record T) error {
	if err := record.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeCreate, record); err != nil {
		return err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, record); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		if s.audit == nil {
			return nil
		}
		snap, err := audit.Snapshot(record)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", s.entityName, err)
		}
		return s.record(ctx, record.GetID(), audit.ActionCreate, audit.Diff(nil, snap))
	})
	if err != nil {
		return err
	}

	s.reindex(ctx, record)
	s.runAfter(ctx, AfterCreate, record)
	return nil
}

// GetByID retrieves a record by ID.
func (s *RecordService[T]) GetByID(ctx context.Context, recordID id.ID) (T, error) {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return record, s.normalizeGetErr(err, recordID)
	}
	return record, nil
}

// Update validates and saves a record. The record's version must match the stored one.
func (s *RecordService[T]) Update(ctx context.Context, record T) error {
	return s.UpdateAs(ctx, record, audit.ActionUpdate)
}

// UpdateAs is Update with a custom audit action, for state transitions.
func (s *RecordService[T]) UpdateAs(ctx context.Context, record T, action audit.Action) error {
	if err := record.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeUpdate, record); err != nil {
		return err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		var before map[string]any
		if s.audit != nil {
			current, err := s.repo.GetByID(ctx, record.GetID())
			if err != nil {
				return s.normalizeGetErr(err, record.GetID())
			}
			if before, err = audit.Snapshot(current); err != nil {
				return fmt.Errorf("snapshot %s: %w", s.entityName, err)
			}
		}

		if err := s.repo.Update(ctx, record); err != nil {
			if apperror.IsAppError(err) {
				return err
			}
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}

		if s.audit == nil {
			return nil
		}
		after, err := audit.Snapshot(record)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", s.entityName, err)
		}
		changes := audit.Diff(before, after)
		if len(changes) == 0 {
			return nil
		}
		return s.record(ctx, record.GetID(), action, changes)
	})
	if err != nil {
		return err
	}

	s.reindex(ctx, record)
	s.runAfter(ctx, AfterUpdate, record)
	return nil
}

// Delete removes a record physically.
func (s *RecordService[T]) Delete(ctx context.Context, recordID id.ID) error {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return s.normalizeGetErr(err, recordID)
	}
	if err := s.hooks.Run(ctx, BeforeDelete, record); err != nil {
		return err
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, recordID); err != nil {
			if apperror.IsAppError(err) {
				return err
			}
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return s.record(ctx, recordID, audit.ActionDelete, nil)
	})
	if err != nil {
		return err
	}

	s.unindex(ctx, recordID)
	s.runAfter(ctx, AfterDelete, record)
	return nil
}

// SetDeletionMark sets or clears the soft-deletion mark of one record.
func (s *RecordService[T]) SetDeletionMark(ctx context.Context, recordID id.ID, marked bool) error {
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, recordID, marked); err != nil {
			return s.normalizeGetErr(err, recordID)
		}
		return s.record(ctx, recordID, audit.ActionDeletionMark, map[string]audit.Change{
			"deletionMark": {Old: !marked, New: marked},
		})
	})
	if err != nil {
		return err
	}

	if s.indexer != nil {
		if record, err := s.repo.GetByID(ctx, recordID); err == nil {
			s.reindex(ctx, record)
		}
	}
	return nil
}

// List retrieves records with a plain list filter.
func (s *RecordService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter.Normalized())
}

// Prepare validates req against the record schema.
func (s *RecordService[T]) Prepare(req search.Request) (search.Request, error) {
	if s.schema == nil {
		return req, nil
	}
	return s.schema.Prepare(req)
}

// Search runs a universal search request.
// Requests with free text go to the full-text index when one is configured;
// Postgres answers everything else and takes over when the index fails.
func (s *RecordService[T]) Search(ctx context.Context, query SearchQuery) (search.Page[T], error) {
	prepared, err := s.Prepare(query.Request)
	if err != nil {
		return search.Page[T]{}, err
	}
	query.Request = prepared

	if s.fullText != nil && prepared.SearchText != "" {
		page, err := s.searchFullText(ctx, query)
		if err == nil {
			return page, nil
		}
		logger.Warn(ctx, "full-text search failed, falling back to database",
			"entity", s.entityName, "error", err)
	}

	return s.repo.Search(ctx, query)
}

func (s *RecordService[T]) searchFullText(ctx context.Context, query SearchQuery) (search.Page[T], error) {
	ids, total, err := s.fullText.SearchIDs(ctx, query)
	if err != nil {
		return search.Page[T]{}, err
	}
	found, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return search.Page[T]{}, err
	}

	// rows deleted since they were indexed are not counted
	total -= int64(len(ids) - len(found))

	// bulk deletion marks do not reach the index, so the database has the final say
	items := make([]T, 0, len(found))
	for _, item := range found {
		if item.IsMarkedDeleted() && !query.IncludeDeleted {
			total--
			continue
		}
		items = append(items, item)
	}
	if total < int64(len(items)) {
		total = int64(len(items))
	}
	return search.Page[T]{
		Content:       items,
		TotalElements: total,
		Page:          query.Page.Page,
		Size:          query.Page.Size,
	}, nil
}

// Export returns up to limit records matching req, for file exports.
func (s *RecordService[T]) Export(ctx context.Context, req search.Request, limit int) ([]T, error) {
	prepared, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	// one snapshot for the whole file
	txm, _ := s.getTxManager(ctx)
	var out []T
	err = tx.RunReadOnly(ctx, txm, func(ctx context.Context) error {
		out, err = s.repo.SearchAll(ctx, prepared, limit)
		return err
	})
	return out, err
}

// BulkSetDeletionMark marks or unmarks every record matching req.
// An empty request is rejected so a bulk call never touches the whole table.
func (s *RecordService[T]) BulkSetDeletionMark(ctx context.Context, req search.Request, marked bool) (int64, error) {
	prepared, err := s.Prepare(req)
	if err != nil {
		return 0, err
	}
	if prepared.IsEmpty() {
		return 0, apperror.NewValidation("bulk operation requires search criteria or idsList").
			WithDetail("entity", s.entityName)
	}

	var affected int64
	err = s.inTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.BulkSetDeletionMark(ctx, prepared, marked)
		if err != nil {
			return fmt.Errorf("bulk deletion mark %s: %w", s.entityName, err)
		}
		affected = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "bulk deletion mark applied",
		"entity", s.entityName, "marked", marked, "affected", affected)
	return affected, nil
}
