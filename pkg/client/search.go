package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Page is one page of search results.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// BulkResult reports how many records a bulk call changed.
type BulkResult struct {
	Affected int64 `json:"affected"`
}

// SearchOptions selects the page and whether marked records are included.
type SearchOptions struct {
	Page           int
	Size           int
	IncludeDeleted bool
}

func (o SearchOptions) query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(o.Page))
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	if o.IncludeDeleted {
		q.Set("includeDeleted", "true")
	}
	return q
}

// Search runs a universal search over entity ("employees", "visitors", ...).
// It is retried according to the client's RetryPolicy.
func Search[T any](ctx context.Context, c *Client, entity string, req Request, opts SearchOptions) (Result[Page[T]], error) {
	path := "/" + entity + "/search"
	res, err := c.retry.run(ctx, func(ctx context.Context) (*response, error) {
		return c.do(ctx, http.MethodPost, path, opts.query(), req)
	})
	if err != nil {
		return Result[Page[T]]{}, err
	}
	return decode[Page[T]](res)
}

// BulkDeletionMark sets or clears the deletion mark on every record
// matching req. The server rejects an empty request.
func (c *Client) BulkDeletionMark(ctx context.Context, entity string, req Request, marked bool) (Result[BulkResult], error) {
	body := struct {
		Request Request `json:"request"`
		Marked  bool    `json:"marked"`
	}{req, marked}
	return call[BulkResult](ctx, c, http.MethodPost, "/"+entity+"/deletion-mark", nil, body)
}

// Export is a downloaded spreadsheet.
type Export struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Export downloads the records matching req as an XLSX workbook.
func (c *Client) Export(ctx context.Context, entity string, req Request) (Result[Export], error) {
	res, err := c.do(ctx, http.MethodPost, "/"+entity+"/export", nil, req)
	if err != nil {
		return Result[Export]{}, err
	}
	out := Result[Export]{Status: res.status}
	if !out.OK() {
		out.Error = parseError(res)
		return out, nil
	}
	out.Data = Export{
		FileName:    attachmentName(res.header.Get("Content-Disposition")),
		ContentType: res.header.Get("Content-Type"),
		Content:     res.body,
	}
	return out, nil
}

func attachmentName(disposition string) string {
	_, name, ok := strings.Cut(disposition, "filename=")
	if !ok {
		return ""
	}
	return strings.Trim(name, `"`)
}
