package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/audit"
	"staffdesk/internal/domain/search"
	"staffdesk/internal/infrastructure/export"
	"staffdesk/internal/infrastructure/http/v1/dto"
	"staffdesk/internal/metadata"
)

// RecordService is the part of domain.RecordService the handler needs.
type RecordService[T entity.Record] interface {
	Create(ctx context.Context, record T) error
	GetByID(ctx context.Context, recordID id.ID) (T, error)
	Update(ctx context.Context, record T) error
	Delete(ctx context.Context, recordID id.ID) error
	SetDeletionMark(ctx context.Context, recordID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
	Search(ctx context.Context, query domain.SearchQuery) (search.Page[T], error)
	Export(ctx context.Context, req search.Request, limit int) ([]T, error)
	BulkSetDeletionMark(ctx context.Context, req search.Request, marked bool) (int64, error)
}

const (
	defaultExportRows   = 10000
	defaultHistoryLimit = 50
)

// RecordOptions are the settings shared by every record handler.
type RecordOptions struct {
	History       audit.Recorder
	ExportMaxRows int
}

// RecordHandler provides generic HTTP handlers for record types.
type RecordHandler[T entity.Record, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service       RecordService[T]
	definition    metadata.EntityDef
	history       audit.Recorder
	exportMaxRows int

	mapCreateDTO func(dto CreateDTO) (T, error)
	mapUpdateDTO func(dto UpdateDTO, existing T) error
	mapToDTO     func(entity T) any
}

// RecordHandlerConfig configures the record handler.
type RecordHandlerConfig[T entity.Record, CreateDTO any, UpdateDTO any] struct {
	Service    RecordService[T]
	Definition metadata.EntityDef

	// History serves the audit trail endpoint when set
	History       audit.Recorder
	ExportMaxRows int

	MapCreateDTO func(dto CreateDTO) (T, error)
	MapUpdateDTO func(dto UpdateDTO, existing T) error
	// MapToDTO defaults to the record itself
	MapToDTO func(entity T) any
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler[T entity.Record, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg RecordHandlerConfig[T, CreateDTO, UpdateDTO],
) *RecordHandler[T, CreateDTO, UpdateDTO] {
	mapToDTO := cfg.MapToDTO
	if mapToDTO == nil {
		mapToDTO = func(e T) any { return e }
	}
	maxRows := cfg.ExportMaxRows
	if maxRows <= 0 {
		maxRows = defaultExportRows
	}
	return &RecordHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:   base,
		service:       cfg.Service,
		definition:    cfg.Definition,
		history:       cfg.History,
		exportMaxRows: maxRows,
		mapCreateDTO:  cfg.MapCreateDTO,
		mapUpdateDTO:  cfg.MapUpdateDTO,
		mapToDTO:      mapToDTO,
	}
}

// List handles GET /{entity} - plain list with paging.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	var ok bool
	if filter.Limit, ok = h.QueryInt(c, "limit", filter.Limit); !ok {
		return
	}
	if filter.Offset, ok = h.QueryInt(c, "offset", 0); !ok {
		return
	}
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if raw := c.Query("ids"); raw != "" {
		ids, err := id.ParseAll(strings.Split(raw, ","))
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid ids").WithDetail("field", "ids"))
			return
		}
		filter.IDs = ids
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = h.mapToDTO(item)
	}
	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Search handles POST /{entity}/search?page=&size=&includeDeleted= with a
// universal search request as the body.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Search(c *gin.Context) {
	req, ok := h.bindSearchRequest(c)
	if !ok {
		return
	}
	page, ok := h.QueryInt(c, "page", 0)
	if !ok {
		return
	}
	size, ok := h.QueryInt(c, "size", search.DefaultPageSize)
	if !ok {
		return
	}
	pageReq, err := search.NewPageRequest(page, size)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Search(c.Request.Context(), domain.SearchQuery{
		Request:        req,
		Page:           pageReq,
		IncludeDeleted: c.Query("includeDeleted") == "true",
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewPageResponse(result, h.mapToDTO))
}

// Export handles POST /{entity}/export and returns an XLSX file of every
// record matching the request body.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Export(c *gin.Context) {
	req, ok := h.bindSearchRequest(c)
	if !ok {
		return
	}

	records, err := h.service.Export(c.Request.Context(), req, h.exportMaxRows)
	if err != nil {
		h.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, h.definition, records); err != nil {
		h.Error(c, apperror.NewInternal(err).WithDetail("entity", h.definition.Name))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(h.definition, time.Now())+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// BulkDeletionMark handles POST /{entity}/deletion-mark.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) BulkDeletionMark(c *gin.Context) {
	var req dto.BulkDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	affected, err := h.service.BulkSetDeletionMark(c.Request.Context(), req.Request, req.Marked)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BulkResult{Affected: affected})
}

// Get handles GET /{entity}/:id.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	recordID, ok := h.PathID(c)
	if !ok {
		return
	}

	record, err := h.service.GetByID(c.Request.Context(), recordID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(record))
}

// Create handles POST /{entity}.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	record, err := h.mapCreateDTO(req)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), record); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.mapToDTO(record))
}

// Update handles PUT /{entity}/:id.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	recordID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, recordID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.mapUpdateDTO(req, existing); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(existing))
}

// Delete handles DELETE /{entity}/:id.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	recordID, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), recordID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SetDeletionMark handles POST /{entity}/:id/deletion-mark.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) SetDeletionMark(c *gin.Context) {
	recordID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.SetDeletionMark(c.Request.Context(), recordID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /{entity}/:id/history.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) History(c *gin.Context) {
	if h.history == nil {
		h.Error(c, apperror.NewNotFound("history", h.definition.Name))
		return
	}
	recordID, ok := h.PathID(c)
	if !ok {
		return
	}
	limit, ok := h.QueryInt(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}

	entries, err := h.history.History(c.Request.Context(), h.definition.Name, recordID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// bindSearchRequest reads the request body. An empty body is the empty request.
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) bindSearchRequest(c *gin.Context) (search.Request, bool) {
	var req search.Request
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if !h.BindJSON(c, &req) {
		return search.Request{}, false
	}
	return req, true
}
