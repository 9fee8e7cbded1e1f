package search

import (
	"staffdesk/internal/core/apperror"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxResultWindow bounds offset plus size, matching the index default.
	MaxResultWindow = 10_000
)

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest validates page and size. A zero size means DefaultPageSize.
func NewPageRequest(page, size int) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, apperror.NewValidation("page must not be negative").
			WithDetail("page", page)
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		return PageRequest{}, apperror.NewValidation("page size out of range").
			WithDetail("size", size).
			WithDetail("max", MaxPageSize)
	}
	if page >= MaxResultWindow/size {
		return PageRequest{}, apperror.NewValidation("page too deep").
			WithDetail("page", page).
			WithDetail("maxResultWindow", MaxResultWindow)
	}
	return PageRequest{Page: page, Size: size}, nil
}

// Offset is the number of rows skipped before the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Limit is the page size.
func (p PageRequest) Limit() int {
	return p.Size
}

// Page is one page of search results.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// TotalPages returns the page count for the result set.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// MapPage converts page items with fn.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := Page[R]{
		Content:       make([]R, len(p.Content)),
		TotalElements: p.TotalElements,
		Page:          p.Page,
		Size:          p.Size,
	}
	for i, item := range p.Content {
		out.Content[i] = fn(item)
	}
	return out
}
